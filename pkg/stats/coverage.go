// Package stats 提供排班统计分析功能
package stats

import (
	"github.com/spatipan/shift-scheduler/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalShifts     int     `json:"total_shifts"`     // 总班次数
	FilledShifts    int     `json:"filled_shifts"`    // 满足最低人数的班次数
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	DailyCoverage map[string]DayCoverage `json:"daily_coverage"` // 每日覆盖情况
	TypeCoverage  map[string]float64     `json:"type_coverage"`  // 按班次类型覆盖率

	UnfilledShifts []UnfilledShift `json:"unfilled_shifts"` // 未满足的班次
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalShifts  int     `json:"total_shifts"`
	Filled       int     `json:"filled"`
	CoverageRate float64 `json:"coverage_rate"`
	StaffCount   int     `json:"staff_count"`
	TotalHours   float64 `json:"total_hours"`
}

// UnfilledShift 未满足最低人数的班次
type UnfilledShift struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Needed   int    `json:"needed"`
	Assigned int    `json:"assigned"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析排班的覆盖率。
// 一个班次满足覆盖的条件是分配人数达到类型的最低人数。
func (c *CoverageAnalyzer) Analyze(sched *model.Schedule) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage: make(map[string]DayCoverage),
		TypeCoverage:  make(map[string]float64),
	}
	if sched == nil || len(sched.Shifts) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	dailyStats := make(map[string]*DayCoverage)
	typeTotals := make(map[string]int)
	typeFilled := make(map[string]int)

	for _, sh := range sched.Shifts {
		date := sh.Date()
		filled := len(sh.Workers) >= sh.Type.MinNeeded

		metrics.TotalShifts++
		if filled {
			metrics.FilledShifts++
		} else {
			metrics.UnfilledShifts = append(metrics.UnfilledShifts, UnfilledShift{
				Date:     date,
				Type:     sh.Type.Name,
				Needed:   sh.Type.MinNeeded,
				Assigned: len(sh.Workers),
			})
		}

		day, exists := dailyStats[date]
		if !exists {
			day = &DayCoverage{Date: date}
			dailyStats[date] = day
		}
		day.TotalShifts++
		if filled {
			day.Filled++
		}
		day.StaffCount += len(sh.Workers)
		day.TotalHours += sh.Duration().Hours() * float64(len(sh.Workers))

		typeTotals[sh.Type.Name]++
		if filled {
			typeFilled[sh.Type.Name]++
		}
	}

	metrics.OverallCoverage = rate(metrics.FilledShifts, metrics.TotalShifts)

	for date, day := range dailyStats {
		day.CoverageRate = rate(day.Filled, day.TotalShifts)
		metrics.DailyCoverage[date] = *day
	}
	for name, total := range typeTotals {
		metrics.TypeCoverage[name] = rate(typeFilled[name], total)
	}

	return metrics
}

// rate 计算百分比，分母为零时返回 100
func rate(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(part) / float64(total) * 100
}
