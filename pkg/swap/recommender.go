// Package swap 提供换班/调班功能
package swap

import (
	"sort"

	"github.com/spatipan/shift-scheduler/pkg/errors"
	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/availability"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
)

// Recommender 换班推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建换班推荐器
func NewRecommender(tables *catalog.Tables, avail *availability.Index) *Recommender {
	return &Recommender{
		evaluator: NewEvaluator(tables, avail),
	}
}

// Recommendation 换班推荐
type Recommendation struct {
	Worker *model.Worker `json:"worker"`
	Score  float64       `json:"score"`
	Reason string        `json:"reason"`
	Rank   int           `json:"rank"`
}

// Options 推荐选项
type Options struct {
	Max      int      // 最大推荐数量
	Exclude  []string // 排除的人员缩写
	MinScore float64  // 最低得分
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		Max:      5,
		MinScore: 60,
	}
}

// RecommendTargets 为某个分配推荐可接手的人员
func (r *Recommender) RecommendTargets(
	sched *model.Schedule,
	sh *model.Shift,
	from *model.Worker,
	options *Options,
) []Recommendation {
	if options == nil {
		options = DefaultOptions()
	}

	exclude := make(map[string]bool)
	exclude[from.Abbreviation] = true
	for _, abbr := range options.Exclude {
		exclude[abbr] = true
	}

	var candidates []Recommendation
	for _, w := range sched.Workers {
		if exclude[w.Abbreviation] || !w.Active {
			continue
		}

		evaluation := r.evaluator.Evaluate(sched, &Request{Shift: sh, From: from, To: w})
		if !evaluation.Feasible || evaluation.Score < options.MinScore {
			continue
		}

		candidates = append(candidates, Recommendation{
			Worker: w,
			Score:  evaluation.Score,
			Reason: evaluation.Recommendation,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Worker.Abbreviation < candidates[j].Worker.Abbreviation
	})

	if len(candidates) > options.Max {
		candidates = candidates[:options.Max]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}

// FindBestReplacement 为指定日期和类型上的人员找到最佳替换
func (r *Recommender) FindBestReplacement(
	sched *model.Schedule,
	date, typeName, abbr string,
) (*Recommendation, error) {
	sh, err := sched.ShiftOn(date, typeName)
	if err != nil {
		return nil, err
	}
	from, err := sched.WorkerByAbbr(abbr)
	if err != nil {
		return nil, err
	}

	recommendations := r.RecommendTargets(sched, sh, from, &Options{Max: 1, MinScore: 50})
	if len(recommendations) == 0 {
		return nil, nil
	}
	return &recommendations[0], nil
}

// Apply 执行换班：把 From 在班次上的分配转让给 To
func (r *Recommender) Apply(sched *model.Schedule, sh *model.Shift, from, to *model.Worker) error {
	if ok, reason := r.evaluator.CanSwap(sched, &Request{Shift: sh, From: from, To: to}); !ok {
		return errors.ScheduleConflict(to.Abbreviation, sh.Date(), reason)
	}

	removeAssignment(sh, from)
	return sched.Assign(sh, to)
}

// removeAssignment 解除人员与班次的双向关联
func removeAssignment(sh *model.Shift, w *model.Worker) {
	for i, assigned := range sh.Workers {
		if assigned.Abbreviation == w.Abbreviation {
			sh.Workers = append(sh.Workers[:i], sh.Workers[i+1:]...)
			break
		}
	}
	for i, assigned := range w.Shifts {
		if assigned == sh {
			w.Shifts = append(w.Shifts[:i], w.Shifts[i+1:]...)
			break
		}
	}
}
