// Package swap 提供换班/调班功能
package swap

import (
	"fmt"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/availability"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
)

// Evaluator 换班评估器。
// 判定一个已分配班次能否转让给另一名人员，规则与求解时一致。
type Evaluator struct {
	tables *catalog.Tables
	avail  *availability.Index
}

// NewEvaluator 创建换班评估器，tables 为 nil 时使用默认策略表
func NewEvaluator(tables *catalog.Tables, avail *availability.Index) *Evaluator {
	if tables == nil {
		tables = catalog.Default()
	}
	if avail == nil {
		avail = availability.New(0)
	}
	return &Evaluator{tables: tables, avail: avail}
}

// Request 换班请求：把 From 在 Shift 上的分配转让给 To
type Request struct {
	Shift *model.Shift  `json:"shift"`
	From  *model.Worker `json:"from"`
	To    *model.Worker `json:"to"`
}

// Issue 换班问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Evaluation 换班评估结果
type Evaluation struct {
	Feasible       bool    `json:"feasible"`
	Score          float64 `json:"score"` // 0-100
	Issues         []Issue `json:"issues"`
	HoursChange    float64 `json:"hours_change"` // 目标人员的工时变化
	Recommendation string  `json:"recommendation"`
}

// Evaluate 评估换班可行性
func (e *Evaluator) Evaluate(sched *model.Schedule, req *Request) *Evaluation {
	result := &Evaluation{Feasible: true, Score: 100}

	if req == nil || req.Shift == nil || req.From == nil || req.To == nil {
		return e.reject(result, "invalid_request", "无效的换班请求")
	}
	sh, from, to := req.Shift, req.From, req.To

	if !sh.HasWorker(from.Abbreviation) {
		return e.reject(result, "not_assigned", fmt.Sprintf("人员 %s 未分配到班次 %s", from.Abbreviation, sh.Key()))
	}
	if sh.IsPinned(from.Abbreviation) {
		return e.reject(result, "pinned", "钉定的分配不可转让")
	}
	if !to.Active {
		return e.reject(result, "worker_inactive", fmt.Sprintf("人员 %s 不在岗", to.Abbreviation))
	}
	if sh.HasWorker(to.Abbreviation) {
		return e.reject(result, "already_assigned", fmt.Sprintf("人员 %s 已在班次 %s 上", to.Abbreviation, sh.Key()))
	}
	if !to.HasRole(sh.Type.Role) {
		return e.reject(result, "role_mismatch", fmt.Sprintf("人员 %s 不具备岗位 %s", to.Abbreviation, sh.Type.Role))
	}

	date := sh.Date()

	// 同日互斥检查
	for _, other := range to.ShiftsOn(date) {
		if e.tables.IsIncompatible(sh.Type.Name, other.Type.Name) {
			e.addIssue(result, "exclusion", "error",
				fmt.Sprintf("与人员 %s 同日的班次 %s 互斥", to.Abbreviation, other.Type.Name))
		}
	}

	// 每日班次上限检查
	if limit := e.tables.DailyCap; limit > 0 && len(to.ShiftsOn(date))+1 > limit {
		e.addIssue(result, "daily_cap", "error",
			fmt.Sprintf("换班后人员 %s 当日班次数超过上限 %d", to.Abbreviation, limit))
	}

	// 可用性检查
	if !e.avail.Available(to, sh.TimeRange, availability.PolicyFor(sh.Type)) {
		e.addIssue(result, "availability", "error",
			fmt.Sprintf("人员 %s 在班次时间内有其他占用", to.Abbreviation))
	}

	// 禁排检查
	if sched != nil && sched.Policy.Blocked(to.Abbreviation, sh.Start.Weekday(), sh.Type.Name) {
		e.addIssue(result, "weekday_blocked", "error",
			fmt.Sprintf("人员 %s 在该星期禁排 %s", to.Abbreviation, sh.Type.Name))
	}

	result.HoursChange = sh.Duration().Hours()

	// 工时平衡：换班把班次推向工时更高的人时降低得分
	if sched != nil {
		avg := averageHours(sched)
		toHours := totalHours(to)
		if toHours > avg {
			result.Score -= 15
			e.addIssue(result, "workload", "warning",
				fmt.Sprintf("人员 %s 的工时已高于平均水平", to.Abbreviation))
		}
	}

	if result.Score < 0 {
		result.Score = 0
	}
	result.Recommendation = e.recommendation(result)
	return result
}

// CanSwap 快速检查是否可换班
func (e *Evaluator) CanSwap(sched *model.Schedule, req *Request) (bool, string) {
	result := e.Evaluate(sched, req)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行换班"
	}
	return true, ""
}

func (e *Evaluator) reject(result *Evaluation, issueType, message string) *Evaluation {
	e.addIssue(result, issueType, "error", message)
	result.Recommendation = e.recommendation(result)
	return result
}

func (e *Evaluator) addIssue(result *Evaluation, issueType, severity, message string) {
	result.Issues = append(result.Issues, Issue{Type: issueType, Severity: severity, Message: message})
	if severity == "error" {
		result.Feasible = false
		result.Score = 0
	}
}

// recommendation 生成换班建议
func (e *Evaluator) recommendation(result *Evaluation) string {
	if !result.Feasible {
		return "不建议进行此换班，存在硬性冲突"
	}
	if result.Score >= 90 {
		return "推荐，换班后整体效果良好"
	}
	if result.Score >= 70 {
		return "可以进行，但存在工时平衡提醒"
	}
	return "谨慎进行，可能影响整体排班质量"
}

// totalHours 人员的总工时
func totalHours(w *model.Worker) float64 {
	var hours float64
	for _, sh := range w.Shifts {
		hours += sh.Duration().Hours()
	}
	return hours
}

// averageHours 排班的人均工时
func averageHours(sched *model.Schedule) float64 {
	if len(sched.Workers) == 0 {
		return 0
	}
	var total float64
	for _, w := range sched.Workers {
		total += totalHours(w)
	}
	return total / float64(len(sched.Workers))
}
