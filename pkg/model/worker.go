// Package model 定义排班求解引擎的核心数据模型
package model

import "strings"

// Worker 排班人员
type Worker struct {
	BaseModel
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Abbreviation string `json:"abbreviation" db:"abbreviation"` // 稳定标识
	Role         string `json:"role" db:"role"`
	Active       bool   `json:"active" db:"active"`

	Shifts []*Shift `json:"-"` // 已分配班次
	Tasks  []*Task  `json:"-"` // 其他占用
}

// FullName 返回全名
func (w *Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

// HasRole 检查人员是否具备指定岗位
func (w *Worker) HasRole(role string) bool {
	return role == "" || w.Role == role
}

// Busy 返回人员的全部占用时间段（班次 + 任务）
func (w *Worker) Busy() []TimeRange {
	busy := make([]TimeRange, 0, len(w.Shifts)+len(w.Tasks))
	for _, s := range w.Shifts {
		busy = append(busy, s.TimeRange)
	}
	for _, t := range w.Tasks {
		busy = append(busy, t.TimeRange)
	}
	return busy
}

// ShiftsOn 返回人员在指定日期的班次
func (w *Worker) ShiftsOn(date string) []*Shift {
	var out []*Shift
	for _, s := range w.Shifts {
		if s.Date() == date {
			out = append(out, s)
		}
	}
	return out
}

// CountByType 返回人员在指定班次类型上的分配次数
func (w *Worker) CountByType(typeName string) int {
	n := 0
	for _, s := range w.Shifts {
		if s.Type.Name == typeName {
			n++
		}
	}
	return n
}
