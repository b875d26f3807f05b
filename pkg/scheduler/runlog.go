// Package scheduler 实现分阶段、可回滚的排班求解驱动
package scheduler

// Outcome 约束组的提交结果
type Outcome string

const (
	OutcomeCommitted Outcome = "committed" // 已提交
	OutcomeSkipped   Outcome = "skipped"   // 不可行，已回滚
	OutcomeError     Outcome = "error"     // 构建或提取出错
)

// Entry 运行日志条目
type Entry struct {
	Stage   string  `json:"stage"`
	Key     string  `json:"key"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// RunLog 一次求解的结构化运行日志
type RunLog struct {
	Entries []Entry `json:"entries"`
}

// Add 追加日志条目
func (l *RunLog) Add(stage, key string, outcome Outcome, reason string) {
	l.Entries = append(l.Entries, Entry{Stage: stage, Key: key, Outcome: outcome, Reason: reason})
}

// Committed 返回已提交的组数
func (l *RunLog) Committed() int {
	return l.count(OutcomeCommitted)
}

// Skipped 返回被跳过的组数
func (l *RunLog) Skipped() int {
	return l.count(OutcomeSkipped)
}

// Errors 返回出错条目数
func (l *RunLog) Errors() int {
	return l.count(OutcomeError)
}

func (l *RunLog) count(o Outcome) int {
	n := 0
	for _, e := range l.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// ByKey 按组键查找日志条目
func (l *RunLog) ByKey(key string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}
