// Package validator 提供排班结果验证功能
package validator

import (
	"fmt"
	"sort"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/availability"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"      // 时间重叠
	ConflictExclusion    ConflictType = "exclusion"    // 同日互斥班次
	ConflictDailyCap     ConflictType = "daily_cap"    // 超过每日班次上限
	ConflictAvailability ConflictType = "availability" // 与既有任务冲突
	ConflictRole         ConflictType = "role"         // 岗位不符
	ConflictCapacity     ConflictType = "capacity"     // 超过班次人数上限
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	Worker   string       `json:"worker"`
	Date     string       `json:"date"`
	Message  string       `json:"message"`
	Shifts   []string     `json:"shifts,omitempty"` // 相关班次键
}

// ConflictDetector 冲突检测器。
// 对已求解的排班做独立复核，规则与求解时一致。
type ConflictDetector struct {
	tables *catalog.Tables
	avail  *availability.Index
}

// NewConflictDetector 创建冲突检测器，tables 为 nil 时使用默认策略表
func NewConflictDetector(tables *catalog.Tables, avail *availability.Index) *ConflictDetector {
	if tables == nil {
		tables = catalog.Default()
	}
	if avail == nil {
		avail = availability.New(0)
	}
	return &ConflictDetector{tables: tables, avail: avail}
}

// DetectAll 检测排班中的所有冲突
func (d *ConflictDetector) DetectAll(sched *model.Schedule) []Conflict {
	if sched == nil {
		return nil
	}
	var conflicts []Conflict
	for _, w := range sched.Workers {
		conflicts = append(conflicts, d.detectOverlaps(w)...)
		conflicts = append(conflicts, d.detectExclusions(w)...)
		conflicts = append(conflicts, d.detectDailyCap(w)...)
		conflicts = append(conflicts, d.detectTaskConflicts(w)...)
		conflicts = append(conflicts, d.detectRoleMismatch(w)...)
	}
	conflicts = append(conflicts, d.detectOvercapacity(sched)...)
	return conflicts
}

// detectOverlaps 检测同一人员时间重叠的班次
func (d *ConflictDetector) detectOverlaps(w *model.Worker) []Conflict {
	var conflicts []Conflict

	sorted := make([]*model.Shift, len(w.Shifts))
	copy(sorted, w.Shifts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for i := 0; i < len(sorted)-1; i++ {
		current, next := sorted[i], sorted[i+1]
		if current.Overlaps(next.TimeRange) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: "error",
				Worker:   w.Abbreviation,
				Date:     current.Date(),
				Message:  fmt.Sprintf("人员 %s 的班次 %s 与 %s 时间重叠", w.Abbreviation, current.Key(), next.Key()),
				Shifts:   []string{current.Key(), next.Key()},
			})
		}
	}
	return conflicts
}

// detectExclusions 检测同日互斥班次
func (d *ConflictDetector) detectExclusions(w *model.Worker) []Conflict {
	var conflicts []Conflict

	byDate := make(map[string][]*model.Shift)
	for _, sh := range w.Shifts {
		byDate[sh.Date()] = append(byDate[sh.Date()], sh)
	}

	for date, shifts := range byDate {
		for i, a := range shifts {
			for _, b := range shifts[i+1:] {
				if !d.tables.IsIncompatible(a.Type.Name, b.Type.Name) {
					continue
				}
				// 钉定造成的互斥降级为警告，钉定优先于互斥规则
				severity := "error"
				if a.IsPinned(w.Abbreviation) || b.IsPinned(w.Abbreviation) {
					severity = "warning"
				}
				conflicts = append(conflicts, Conflict{
					Type:     ConflictExclusion,
					Severity: severity,
					Worker:   w.Abbreviation,
					Date:     date,
					Message:  fmt.Sprintf("人员 %s 在 %s 同日承担互斥班次 %s 和 %s", w.Abbreviation, date, a.Type.Name, b.Type.Name),
					Shifts:   []string{a.Key(), b.Key()},
				})
			}
		}
	}
	return conflicts
}

// detectDailyCap 检测每日班次数超限。
// 钉定数达到上限的日期不检查，与求解时一致。
func (d *ConflictDetector) detectDailyCap(w *model.Worker) []Conflict {
	limit := d.tables.DailyCap
	if limit <= 0 {
		return nil
	}

	var conflicts []Conflict
	byDate := make(map[string][]*model.Shift)
	for _, sh := range w.Shifts {
		byDate[sh.Date()] = append(byDate[sh.Date()], sh)
	}

	for date, shifts := range byDate {
		if len(shifts) <= limit {
			continue
		}
		pinned := 0
		for _, sh := range shifts {
			if sh.IsPinned(w.Abbreviation) {
				pinned++
			}
		}
		if pinned >= limit {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictDailyCap,
			Severity: "error",
			Worker:   w.Abbreviation,
			Date:     date,
			Message:  fmt.Sprintf("人员 %s 在 %s 承担 %d 个班次，超过上限 %d", w.Abbreviation, date, len(shifts), limit),
		})
	}
	return conflicts
}

// detectTaskConflicts 检测班次与既有任务的时间冲突。
// 钉定班次的任务冲突降级为警告。
func (d *ConflictDetector) detectTaskConflicts(w *model.Worker) []Conflict {
	var conflicts []Conflict
	// 只对照任务占用，班次间的重叠由 detectOverlaps 负责
	probe := &model.Worker{Tasks: w.Tasks}
	for _, sh := range w.Shifts {
		if d.avail.Available(probe, sh.TimeRange, availability.PolicyFor(sh.Type)) {
			continue
		}
		severity := "error"
		if sh.IsPinned(w.Abbreviation) {
			severity = "warning"
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictAvailability,
			Severity: severity,
			Worker:   w.Abbreviation,
			Date:     sh.Date(),
			Message:  fmt.Sprintf("人员 %s 的班次 %s 与既有任务冲突", w.Abbreviation, sh.Key()),
			Shifts:   []string{sh.Key()},
		})
	}
	return conflicts
}

// detectRoleMismatch 检测岗位不符的分配
func (d *ConflictDetector) detectRoleMismatch(w *model.Worker) []Conflict {
	var conflicts []Conflict
	for _, sh := range w.Shifts {
		if w.HasRole(sh.Type.Role) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictRole,
			Severity: "error",
			Worker:   w.Abbreviation,
			Date:     sh.Date(),
			Message:  fmt.Sprintf("人员 %s 不具备班次 %s 要求的岗位 %s", w.Abbreviation, sh.Key(), sh.Type.Role),
			Shifts:   []string{sh.Key()},
		})
	}
	return conflicts
}

// detectOvercapacity 检测超过人数上限的班次
func (d *ConflictDetector) detectOvercapacity(sched *model.Schedule) []Conflict {
	var conflicts []Conflict
	for _, sh := range sched.Shifts {
		if sh.Type.MaxNeeded <= 0 || len(sh.Workers) <= sh.Type.MaxNeeded {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictCapacity,
			Severity: "error",
			Date:     sh.Date(),
			Message:  fmt.Sprintf("班次 %s 分配 %d 人，超过上限 %d", sh.Key(), len(sh.Workers), sh.Type.MaxNeeded),
			Shifts:   []string{sh.Key()},
		})
	}
	return conflicts
}

// Errors 过滤出错误级别的冲突
func Errors(conflicts []Conflict) []Conflict {
	var out []Conflict
	for _, c := range conflicts {
		if c.Severity == "error" {
			out = append(out, c)
		}
	}
	return out
}
