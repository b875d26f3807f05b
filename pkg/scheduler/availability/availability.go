// Package availability 提供人员可用性判断
package availability

import (
	"time"

	"github.com/spatipan/shift-scheduler/pkg/model"
)

// Policy 重叠判定策略
type Policy int

const (
	// Strict 严格策略：任何重叠即不可用
	Strict Policy = iota
	// Bounded 宽松策略：累计重叠超过容差才不可用
	Bounded
)

// DefaultTolerance 宽松策略的默认累计重叠容差
const DefaultTolerance = 4 * time.Hour

// Index 可用性索引
type Index struct {
	tolerance time.Duration
}

// New 创建可用性索引
func New(tolerance time.Duration) *Index {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Index{tolerance: tolerance}
}

// PolicyFor 返回班次类型适用的判定策略。
// 半日班允许与已有占用部分重叠，全日班和夜班要求完全空闲。
func PolicyFor(t *model.ShiftType) Policy {
	if t.IsPartial() {
		return Bounded
	}
	return Strict
}

// Available 检查人员在指定时间范围内是否可用
func (ix *Index) Available(w *model.Worker, tr model.TimeRange, p Policy) bool {
	switch p {
	case Bounded:
		var total time.Duration
		for _, busy := range w.Busy() {
			total += tr.Overlap(busy)
			if total > ix.tolerance {
				return false
			}
		}
		return true
	default:
		for _, busy := range w.Busy() {
			if tr.Overlaps(busy) {
				return false
			}
		}
		return true
	}
}

// AvailableFor 按班次自身的类型策略检查可用性
func (ix *Index) AvailableFor(w *model.Worker, sh *model.Shift) bool {
	return ix.Available(w, sh.TimeRange, PolicyFor(sh.Type))
}
