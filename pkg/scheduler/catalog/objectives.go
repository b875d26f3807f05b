package catalog

import (
	"fmt"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/sat"
)

// objectiveGroups 软目标组，按优先级排列：
// 半日班同日搭配、半日倾向（逐级收紧）、每日单班、避免连续工作日。
func (b *Builder) objectiveGroups() []Group {
	var groups []Group
	for _, date := range b.sched.Dates() {
		if len(b.sched.ShiftsOn(date)) == 0 {
			continue
		}
		for _, pair := range b.tables.Pairs {
			groups = append(groups, b.pairingGroup(date, pair))
		}
	}
	for degree := 1; degree <= 4; degree++ {
		for _, w := range b.sched.Workers {
			if b.sched.Policy.Preference(w.Abbreviation) == model.DayPartNone {
				continue
			}
			groups = append(groups, b.preferenceGroup(w, degree))
		}
	}
	groups = append(groups, b.oneShiftPerDayGroup(), b.spreadDaysGroup())
	return groups
}

// dateTypeVars 返回人员在指定日期、指定类型集合上的变量
func (b *Builder) dateTypeVars(date, abbr string, types ...string) []sat.Var {
	var out []sat.Var
	for _, sh := range b.sched.ShiftsOn(date) {
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

// pairingGroup 半日班搭配：同一人当日的配对班次数量相等
func (b *Builder) pairingGroup(date string, pair [2]string) Group {
	return Group{
		Stage:    StageObjective,
		Key:      fmt.Sprintf("objective:pair %s/%s@%s", pair[0], pair[1], date),
		Category: model.ConstraintSoft,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			for _, w := range b.sched.Workers {
				first := b.dateTypeVars(date, w.Abbreviation, pair[0])
				second := b.dateTypeVars(date, w.Abbreviation, pair[1])
				if len(first) == 0 || len(second) == 0 {
					continue
				}
				var terms []sat.Term
				for _, v := range first {
					terms = append(terms, sat.Term{Var: v, Coef: 1})
				}
				for _, v := range second {
					terms = append(terms, sat.Term{Var: v, Coef: -1})
				}
				m.AddLinear(terms, 0, 0)
			}
			return nil, nil
		},
	}
}

// preferenceGroup 半日倾向：偏好方向的班次数超出反方向至少 degree 个
func (b *Builder) preferenceGroup(w *model.Worker, degree int) Group {
	abbr := w.Abbreviation
	return Group{
		Stage:    StageObjective,
		Key:      fmt.Sprintf("objective:preference %s>=%d", abbr, degree),
		Category: model.ConstraintSoft,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			pref := b.sched.Policy.Preference(abbr)
			var preferred, avoided []sat.Var
			for _, sh := range b.sched.Shifts {
				v, ok := b.Var(sh, abbr)
				if !ok {
					continue
				}
				switch {
				case sh.Type.IsMorning():
					if pref == model.DayPartMorning {
						preferred = append(preferred, v)
					} else {
						avoided = append(avoided, v)
					}
				case sh.Type.IsAfternoon():
					if pref == model.DayPartAfternoon {
						preferred = append(preferred, v)
					} else {
						avoided = append(avoided, v)
					}
				}
			}
			if len(preferred) == 0 {
				return nil, nil
			}
			var terms []sat.Term
			for _, v := range preferred {
				terms = append(terms, sat.Term{Var: v, Coef: 1})
			}
			for _, v := range avoided {
				terms = append(terms, sat.Term{Var: v, Coef: -1})
			}
			m.AddLinear(terms, degree, sat.NoUpper)
			return nil, nil
		},
	}
}

// oneShiftPerDayGroup 每日单班目标：最小化一人一日多班的次数，
// 半日搭配班次不计入。
func (b *Builder) oneShiftPerDayGroup() Group {
	return Group{
		Stage:    StageObjective,
		Key:      "objective:one-shift-per-day",
		Category: model.ConstraintSoft,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			var objective []sat.Term
			for _, date := range b.sched.Dates() {
				for _, w := range b.sched.Workers {
					var terms []sat.Term
					for _, sh := range b.sched.ShiftsOn(date) {
						if b.tables.IsExemptDaily(sh.Type.Name) {
							continue
						}
						if v, ok := b.Var(sh, w.Abbreviation); ok {
							terms = append(terms, sat.Term{Var: v, Coef: 1})
						}
					}
					if len(terms) < 2 {
						continue
					}
					penalty := m.NewBoolVar(fmt.Sprintf("penalty:multi-shift/%s/%s", date, w.Abbreviation))
					terms = append(terms, sat.Term{Var: penalty, Coef: -1})
					m.AddLinear(terms, sat.NoLower, 1)
					objective = append(objective, sat.Term{Var: penalty, Coef: 1})
				}
			}
			return objective, nil
		},
	}
}

// spreadDaysGroup 避免连续工作日：最小化相邻两日都有班的人日对数
func (b *Builder) spreadDaysGroup() Group {
	return Group{
		Stage:    StageObjective,
		Key:      "objective:spread-days",
		Category: model.ConstraintSoft,
		Build: func(m *sat.Model) ([]sat.Term, error) {
			dates := b.sched.Dates()
			worked := make(map[string]sat.Var)
			for _, date := range dates {
				shifts := b.sched.ShiftsOn(date)
				if len(shifts) == 0 {
					continue
				}
				for _, w := range b.sched.Workers {
					wv := m.NewBoolVar(fmt.Sprintf("worked/%s/%s", date, w.Abbreviation))
					worked[date+"/"+w.Abbreviation] = wv
					for _, sh := range shifts {
						if v, ok := b.Var(sh, w.Abbreviation); ok {
							m.AddImplication(v, wv)
						}
					}
				}
			}

			var objective []sat.Term
			for i := 0; i+1 < len(dates); i++ {
				for _, w := range b.sched.Workers {
					d1, ok1 := worked[dates[i]+"/"+w.Abbreviation]
					d2, ok2 := worked[dates[i+1]+"/"+w.Abbreviation]
					if !ok1 || !ok2 {
						continue
					}
					penalty := m.NewBoolVar(fmt.Sprintf("penalty:consecutive/%s/%s", dates[i], w.Abbreviation))
					m.AddLinear([]sat.Term{
						{Var: d1, Coef: 1},
						{Var: d2, Coef: 1},
						{Var: penalty, Coef: -1},
					}, sat.NoLower, 1)
					objective = append(objective, sat.Term{Var: penalty, Coef: 1})
				}
			}
			return objective, nil
		},
	}
}
