// Package model 定义排班求解引擎的核心数据模型
package model

import (
	"fmt"
	"time"
)

// ShiftType 班次类型定义
type ShiftType struct {
	Name      string        `json:"name" db:"name"`
	Offset    time.Duration `json:"offset" db:"offset"`         // 距当日零点的开始偏移
	Length    time.Duration `json:"length" db:"length"`         // 持续时长
	MinNeeded int           `json:"min_needed" db:"min_needed"` // 最少人数
	MaxNeeded int           `json:"max_needed" db:"max_needed"` // 最多人数
	Role      string        `json:"role,omitempty" db:"role"`   // 要求的岗位，空表示不限
}

// RangeOn 返回该类型在指定日期的时间范围
func (t *ShiftType) RangeOn(day time.Time) TimeRange {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).Add(t.Offset)
	return TimeRange{Start: start, End: start.Add(t.Length)}
}

// IsMorning 检查是否为上午班（白天开始且中午前结束，夜班不算）
func (t *ShiftType) IsMorning() bool {
	return t.Offset >= 6*time.Hour && t.Offset+t.Length <= 12*time.Hour
}

// IsAfternoon 检查是否为下午班（中午后开始）
func (t *ShiftType) IsAfternoon() bool {
	return t.Offset >= 12*time.Hour
}

// IsPartial 检查是否为半日班（可用性判断使用宽松策略）
func (t *ShiftType) IsPartial() bool {
	return t.Length < 8*time.Hour
}

// Shift 某日期上的一个班次实例
type Shift struct {
	BaseModel
	TimeRange
	Type    *ShiftType      `json:"type"`
	Workers []*Worker       `json:"-"`
	Pins    map[string]bool `json:"pins,omitempty"` // 缩写 -> 钉定
}

// NewShift 创建指定类型在指定日期的班次
func NewShift(t *ShiftType, day time.Time) *Shift {
	return &Shift{
		BaseModel: NewBaseModel(),
		TimeRange: t.RangeOn(day),
		Type:      t,
		Pins:      make(map[string]bool),
	}
}

// Key 返回班次的稳定标识（日期 + 类型名）
func (s *Shift) Key() string {
	return fmt.Sprintf("%s/%s", s.Date(), s.Type.Name)
}

// HasWorker 检查人员是否已分配到该班次
func (s *Shift) HasWorker(abbr string) bool {
	for _, w := range s.Workers {
		if w.Abbreviation == abbr {
			return true
		}
	}
	return false
}

// Full 检查班次是否已达到人数上限
func (s *Shift) Full() bool {
	return s.Type.MaxNeeded > 0 && len(s.Workers) >= s.Type.MaxNeeded
}

// IsPinned 检查人员在该班次上是否为钉定分配
func (s *Shift) IsPinned(abbr string) bool {
	return s.Pins[abbr]
}

// PinnedCount 返回该班次上的钉定人数
func (s *Shift) PinnedCount() int {
	return len(s.Pins)
}
