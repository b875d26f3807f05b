package catalog

import (
	"fmt"
	"math"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/availability"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/sat"
)

// Stage 约束组的提交阶段
type Stage string

const (
	StageWorker    Stage = "worker"    // 人员级约束
	StageDate      Stage = "date"      // 日期级约束
	StageObjective Stage = "objective" // 软目标
)

// Group 可独立提交、失败可回滚的约束组。
// Build 向模型添加约束（目标组可同时声明辅助变量），
// 返回的项非空时表示本组带最小化目标。
type Group struct {
	Stage    Stage
	Key      string
	Date     string // 日期级约束组所属日期
	Category model.ConstraintCategory
	Build    func(m *sat.Model) ([]sat.Term, error)
}

// VarKey 决策变量的稳定键
type VarKey struct {
	Shift  string // Shift.Key()
	Worker string // 人员缩写
}

// Builder 把排班输入编译为决策变量和约束组
type Builder struct {
	sched  *model.Schedule
	avail  *availability.Index
	tables *Tables
	vars   map[VarKey]sat.Var

	// Warn 钉定覆盖可用性时的告警回调，可为 nil
	Warn func(date, shiftType, worker string)
}

// NewBuilder 创建约束目录构建器
func NewBuilder(sched *model.Schedule, avail *availability.Index, tables *Tables) *Builder {
	if tables == nil {
		tables = Default()
	}
	return &Builder{
		sched:  sched,
		avail:  avail,
		tables: tables,
		vars:   make(map[VarKey]sat.Var),
	}
}

// DeclareVars 为每个（班次, 人员）组合声明决策变量
func (b *Builder) DeclareVars(m *sat.Model) {
	for _, sh := range b.sched.Shifts {
		for _, w := range b.sched.Workers {
			key := VarKey{Shift: sh.Key(), Worker: w.Abbreviation}
			b.vars[key] = m.NewBoolVar(sh.Key() + "/" + w.Abbreviation)
		}
	}
}

// Var 查找决策变量
func (b *Builder) Var(sh *model.Shift, abbr string) (sat.Var, bool) {
	v, ok := b.vars[VarKey{Shift: sh.Key(), Worker: abbr}]
	return v, ok
}

// VarByKey 按稳定键查找决策变量
func (b *Builder) VarByKey(key VarKey) (sat.Var, bool) {
	v, ok := b.vars[key]
	return v, ok
}

// Vars 返回全部决策变量键
func (b *Builder) Vars() map[VarKey]sat.Var {
	return b.vars
}

// Groups 返回全部约束组，按提交顺序排列：
// 先人员级，再日期级（钉定、岗位资格、人数、可用性、互斥、每日上限），最后软目标。
func (b *Builder) Groups() []Group {
	var groups []Group
	for _, w := range b.sched.Workers {
		groups = append(groups, b.workerGroup(w))
		if len(b.sched.Holidays) > 0 {
			groups = append(groups, b.holidayGroup(w))
		}
	}
	for _, date := range b.sched.Dates() {
		if len(b.sched.ShiftsOn(date)) == 0 {
			continue
		}
		groups = append(groups,
			b.pinGroup(date),
			b.eligibilityGroup(date),
			b.coverageGroup(date),
			b.availabilityGroup(date),
			b.exclusionGroup(date),
			b.dailyCapGroup(date),
		)
	}
	groups = append(groups, b.objectiveGroups()...)
	return groups
}

// countByType 统计排班内某类型的班次数
func (b *Builder) countByType(typeName string) int {
	n := 0
	for _, sh := range b.sched.Shifts {
		if sh.Type.Name == typeName {
			n++
		}
	}
	return n
}

// groupAverage 返回班次组的人均班次数（向下取整前的浮点值）
func (b *Builder) groupAverage(types []string) float64 {
	if len(b.sched.Workers) == 0 {
		return 0
	}
	total := 0.0
	for _, t := range types {
		total += float64(b.countByType(t)) / float64(len(b.sched.Workers))
	}
	return total
}

// typeVars 返回人员在指定类型集合上的全部变量
func (b *Builder) typeVars(abbr string, types ...string) []sat.Var {
	var out []sat.Var
	for _, sh := range b.sched.Shifts {
		for _, t := range types {
			if sh.Type.Name == t {
				if v, ok := b.Var(sh, abbr); ok {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// workerGroup 人员级约束组：公平界限与人工指定值
func (b *Builder) workerGroup(w *model.Worker) Group {
	abbr := w.Abbreviation
	return Group{
		Stage:    StageWorker,
		Key:      "worker:" + abbr,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			policy := b.sched.Policy

			// 公平界限，人工指定值优先
			for _, rule := range b.tables.Fairness {
				if n, ok := policy.GroupCount(abbr, rule.Name); ok {
					m.AddSumRange(b.typeVars(abbr, rule.Types...), n, n)
					continue
				}
				if rule.Name == "services" {
					if n, ok := policy.TotalServiceOverride[abbr]; ok {
						m.AddSumRange(b.typeVars(abbr, "service1", "service2"), n, n)
						continue
					}
				}
				avg := int(math.Floor(b.groupAverage(rule.Types)))
				lo := avg + rule.DeltaMin
				if rule.NoMin || lo < 0 {
					lo = sat.NoLower
				}
				vars := b.typeVars(abbr, rule.Types...)
				if len(vars) == 0 {
					continue
				}
				m.AddSumRange(vars, lo, avg+rule.DeltaMax)
			}
			return nil, nil
		},
	}
}

// eligibilityGroup 岗位资格与星期禁排：不符合的组合固定为 0，钉定组合除外
func (b *Builder) eligibilityGroup(date string) Group {
	return Group{
		Stage:    StageDate,
		Key:      "date:" + date + "/eligibility",
		Date:     date,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			policy := b.sched.Policy
			for _, sh := range b.sched.ShiftsOn(date) {
				for _, w := range b.sched.Workers {
					if sh.IsPinned(w.Abbreviation) {
						continue
					}
					v, ok := b.Var(sh, w.Abbreviation)
					if !ok {
						return nil, fmt.Errorf("缺少决策变量 %s/%s", sh.Key(), w.Abbreviation)
					}
					if !w.HasRole(sh.Type.Role) {
						m.Fix(v, 0)
						continue
					}
					if policy.Blocked(w.Abbreviation, sh.Start.Weekday(), sh.Type.Name) {
						m.Fix(v, 0)
					}
				}
			}
			return nil, nil
		},
	}
}

// holidayGroup 假日班次均衡：人均假日班次的 [floor, floor+1] 区间
func (b *Builder) holidayGroup(w *model.Worker) Group {
	abbr := w.Abbreviation
	return Group{
		Stage:    StageWorker,
		Key:      "worker:" + abbr + "/holiday",
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			var vars []sat.Var
			total := 0
			for _, sh := range b.sched.Shifts {
				if !b.sched.IsHoliday(sh.Date()) {
					continue
				}
				total++
				if v, ok := b.Var(sh, abbr); ok {
					vars = append(vars, v)
				}
			}
			if len(vars) == 0 {
				return nil, nil
			}
			avg := total / len(b.sched.Workers)
			m.AddSumRange(vars, avg, avg+1)
			return nil, nil
		},
	}
}

// pinGroup 钉定分配：固定变量为 1，钉定优先于可用性
func (b *Builder) pinGroup(date string) Group {
	return Group{
		Stage:    StageDate,
		Key:      "date:" + date + "/pin",
		Date:     date,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			for _, sh := range b.sched.ShiftsOn(date) {
				for abbr := range sh.Pins {
					v, ok := b.Var(sh, abbr)
					if !ok {
						return nil, fmt.Errorf("缺少决策变量 %s/%s", sh.Key(), abbr)
					}
					m.Fix(v, 1)
					w, err := b.sched.WorkerByAbbr(abbr)
					if err != nil {
						return nil, err
					}
					if !b.availableIgnoringSelf(w, sh) && b.Warn != nil {
						b.Warn(date, sh.Type.Name, abbr)
					}
				}
			}
			return nil, nil
		},
	}
}

// coverageGroup 人数约束：每个班次的分配人数落在 [MinNeeded, MaxNeeded]
func (b *Builder) coverageGroup(date string) Group {
	return Group{
		Stage:    StageDate,
		Key:      "date:" + date + "/coverage",
		Date:     date,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			for _, sh := range b.sched.ShiftsOn(date) {
				var vars []sat.Var
				for _, w := range b.sched.Workers {
					if v, ok := b.Var(sh, w.Abbreviation); ok {
						vars = append(vars, v)
					}
				}
				hi := sh.Type.MaxNeeded
				if hi <= 0 {
					hi = sat.NoUpper
				}
				m.AddSumRange(vars, sh.Type.MinNeeded, hi)
			}
			return nil, nil
		},
	}
}

// availabilityGroup 可用性约束：不可用的组合固定为 0，钉定组合除外
func (b *Builder) availabilityGroup(date string) Group {
	return Group{
		Stage:    StageDate,
		Key:      "date:" + date + "/availability",
		Date:     date,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			for _, sh := range b.sched.ShiftsOn(date) {
				for _, w := range b.sched.Workers {
					if sh.IsPinned(w.Abbreviation) {
						continue
					}
					if b.availableIgnoringSelf(w, sh) {
						continue
					}
					v, ok := b.Var(sh, w.Abbreviation)
					if !ok {
						return nil, fmt.Errorf("缺少决策变量 %s/%s", sh.Key(), w.Abbreviation)
					}
					m.Fix(v, 0)
				}
			}
			return nil, nil
		},
	}
}

// availableIgnoringSelf 按类型策略检查可用性，忽略人员在该班次自身上的占用
func (b *Builder) availableIgnoringSelf(w *model.Worker, sh *model.Shift) bool {
	policy := availability.PolicyFor(sh.Type)
	probe := &model.Worker{Abbreviation: w.Abbreviation}
	for _, s := range w.Shifts {
		if s != sh {
			probe.Shifts = append(probe.Shifts, s)
		}
	}
	probe.Tasks = w.Tasks
	return b.avail.Available(probe, sh.TimeRange, policy)
}

// exclusionGroup 同日互斥：互斥类型对不能分配给同一人，钉定组合除外
func (b *Builder) exclusionGroup(date string) Group {
	return Group{
		Stage:    StageDate,
		Key:      "date:" + date + "/exclusion",
		Date:     date,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			shifts := b.sched.ShiftsOn(date)
			for i, s1 := range shifts {
				for _, s2 := range shifts[i+1:] {
					if !b.tables.IsIncompatible(s1.Type.Name, s2.Type.Name) {
						continue
					}
					for _, w := range b.sched.Workers {
						if s1.IsPinned(w.Abbreviation) || s2.IsPinned(w.Abbreviation) {
							continue
						}
						v1, ok1 := b.Var(s1, w.Abbreviation)
						v2, ok2 := b.Var(s2, w.Abbreviation)
						if !ok1 || !ok2 {
							return nil, fmt.Errorf("缺少决策变量 %s", date)
						}
						m.AddAtMostOne(v1, v2)
					}
				}
			}
			return nil, nil
		},
	}
}

// dailyCapGroup 每日上限：每人每日最多 DailyCap 个班次。
// 当日钉定数已达上限的人员不再施加该约束。
func (b *Builder) dailyCapGroup(date string) Group {
	return Group{
		Stage:    StageDate,
		Key:      "date:" + date + "/daily-cap",
		Date:     date,
		Category: model.ConstraintHard,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			limit := b.tables.DailyCap
			if limit <= 0 {
				limit = 2
			}
			for _, w := range b.sched.Workers {
				pinned := 0
				var vars []sat.Var
				for _, sh := range b.sched.ShiftsOn(date) {
					if sh.IsPinned(w.Abbreviation) {
						pinned++
					}
					if v, ok := b.Var(sh, w.Abbreviation); ok {
						vars = append(vars, v)
					}
				}
				if pinned >= limit {
					continue
				}
				m.AddSumRange(vars, sat.NoLower, limit)
			}
			return nil, nil
		},
	}
}
