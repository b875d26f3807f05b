// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini    float64 `json:"workload_gini"`     // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadStdDev  float64 `json:"workload_std_dev"`  // 工时标准差
	AvgHoursPerWork float64 `json:"avg_hours"`         // 人均工时
	MaxHours        float64 `json:"max_hours"`         // 最大工时
	MinHours        float64 `json:"min_hours"`         // 最小工时
	HoursRange      float64 `json:"hours_range"`       // 工时极差

	// 按公平组的班次数极差：组名 -> 最多者与最少者的差
	GroupSpread map[string]int `json:"group_spread"`

	// 人员级别统计
	WorkerStats []WorkerStat `json:"worker_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// WorkerStat 人员统计
type WorkerStat struct {
	Abbreviation string         `json:"abbreviation"`
	Name         string         `json:"name"`
	TotalHours   float64        `json:"total_hours"`
	ShiftCount   int            `json:"shift_count"`
	GroupCounts  map[string]int `json:"group_counts"` // 公平组名 -> 班次数
	Deviation    float64        `json:"deviation"`    // 与人均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	tables *catalog.Tables
}

// NewFairnessAnalyzer 创建公平性分析器，tables 为 nil 时使用默认策略表
func NewFairnessAnalyzer(tables *catalog.Tables) *FairnessAnalyzer {
	if tables == nil {
		tables = catalog.Default()
	}
	return &FairnessAnalyzer{tables: tables}
}

// Analyze 分析排班公平性
func (f *FairnessAnalyzer) Analyze(sched *model.Schedule) *FairnessMetrics {
	metrics := &FairnessMetrics{
		GroupSpread: make(map[string]int),
	}
	if sched == nil || len(sched.Workers) == 0 {
		metrics.OverallFairnessScore = 100
		return metrics
	}

	stats := f.calculateWorkerStats(sched)
	metrics.WorkerStats = stats

	hours := make([]float64, len(stats))
	for i, s := range stats {
		hours[i] = s.TotalHours
	}

	metrics.AvgHoursPerWork = mean(hours)
	metrics.WorkloadStdDev = math.Sqrt(variance(hours, metrics.AvgHoursPerWork))
	metrics.MaxHours, metrics.MinHours = valueRange(hours)
	metrics.HoursRange = metrics.MaxHours - metrics.MinHours
	metrics.WorkloadGini = gini(hours)

	for i := range stats {
		if metrics.AvgHoursPerWork > 0 {
			stats[i].Deviation = (stats[i].TotalHours - metrics.AvgHoursPerWork) / metrics.AvgHoursPerWork * 100
		}
	}

	for _, rule := range f.tables.Fairness {
		metrics.GroupSpread[rule.Name] = f.groupSpread(stats, rule.Name)
	}

	metrics.OverallFairnessScore = f.overallScore(metrics)
	return metrics
}

// calculateWorkerStats 计算人员级统计数据
func (f *FairnessAnalyzer) calculateWorkerStats(sched *model.Schedule) []WorkerStat {
	stats := make([]WorkerStat, 0, len(sched.Workers))
	for _, w := range sched.Workers {
		stat := WorkerStat{
			Abbreviation: w.Abbreviation,
			Name:         w.FullName(),
			GroupCounts:  make(map[string]int),
		}
		for _, sh := range w.Shifts {
			stat.TotalHours += sh.Duration().Hours()
			stat.ShiftCount++
			for _, rule := range f.tables.Fairness {
				if rule.Covers(sh.Type.Name) {
					stat.GroupCounts[rule.Name]++
				}
			}
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalHours > stats[j].TotalHours
	})
	return stats
}

// groupSpread 计算某公平组内班次数的极差
func (f *FairnessAnalyzer) groupSpread(stats []WorkerStat, group string) int {
	if len(stats) == 0 {
		return 0
	}
	minCount, maxCount := stats[0].GroupCounts[group], stats[0].GroupCounts[group]
	for _, s := range stats[1:] {
		c := s.GroupCounts[group]
		if c < minCount {
			minCount = c
		}
		if c > maxCount {
			maxCount = c
		}
	}
	return maxCount - minCount
}

// overallScore 计算综合公平性评分
func (f *FairnessAnalyzer) overallScore(m *FairnessMetrics) float64 {
	const (
		giniWeight   = 0.5
		spreadWeight = 0.3
		cvWeight     = 0.2
	)

	giniScore := (1 - m.WorkloadGini) * 100

	// 各公平组极差换算：极差 0 为满分，每差 1 个班扣 20 分
	spreadScore := 100.0
	if len(m.GroupSpread) > 0 {
		total := 0.0
		for _, spread := range m.GroupSpread {
			total += math.Max(0, 100-float64(spread)*20)
		}
		spreadScore = total / float64(len(m.GroupSpread))
	}

	// 变异系数越低分数越高
	cvScore := 100.0
	if m.AvgHoursPerWork > 0 {
		cv := m.WorkloadStdDev / m.AvgHoursPerWork
		cvScore = math.Max(0, 100-cv*200)
	}

	score := giniWeight*giniScore + spreadWeight*spreadScore + cvWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 计算方差
func variance(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// valueRange 计算极值
func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}
