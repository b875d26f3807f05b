package sat

import (
	"context"
	"sort"
	"time"
)

// Status 求解状态
type Status int

const (
	StatusUnknown    Status = iota // 预算内未找到解也未证明无解
	StatusOptimal                  // 找到最优解（或无目标时的完整解）
	StatusFeasible                 // 找到可行解但未证明最优
	StatusInfeasible               // 证明无解
)

// String 返回状态名
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Result 求解结果
type Result struct {
	Status    Status
	Objective int // 目标值（按设定方向）
	Decisions int
	Elapsed   time.Duration

	values []int8
}

// Feasible 检查结果是否带有可行解
func (r *Result) Feasible() bool {
	return r.Status == StatusOptimal || r.Status == StatusFeasible
}

// Value 返回变量在解中的取值
func (r *Result) Value(v Var) int {
	if r.values == nil || int(v) >= len(r.values) {
		return 0
	}
	if r.values[v] == 1 {
		return 1
	}
	return 0
}

// searcher 一次系统搜索的状态
type searcher struct {
	m        *Model
	ctx      context.Context
	deadline time.Time
	maxDec   int

	assign    []int8 // -1 未定, 0, 1
	trail     []Var
	order     []Var // 静态分支顺序（出现次数降序）
	decisions int
	aborted   bool
}

func newSearcher(ctx context.Context, m *Model, deadline time.Time, maxDec int) *searcher {
	s := &searcher{
		m:        m,
		ctx:      ctx,
		deadline: deadline,
		maxDec:   maxDec,
		assign:   make([]int8, len(m.names)),
	}
	for i := range s.assign {
		s.assign[i] = -1
	}

	occurs := make([]int, len(m.names))
	for ci := range m.cons {
		for _, t := range m.cons[ci].terms {
			occurs[t.Var]++
		}
	}
	s.order = make([]Var, len(m.names))
	for i := range s.order {
		s.order[i] = Var(i)
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		return occurs[s.order[a]] > occurs[s.order[b]]
	})
	return s
}

func (s *searcher) set(v Var, val int8) {
	s.assign[v] = val
	s.trail = append(s.trail, v)
}

func (s *searcher) undo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		s.assign[v] = -1
	}
}

// propagate 对全部约束做边界传播，直到不动点。返回 false 表示冲突。
func (s *searcher) propagate() bool {
	for changed := true; changed; {
		changed = false
		for ci := range s.m.cons {
			c := &s.m.cons[ci]

			min, max := 0, 0
			for _, t := range c.terms {
				switch s.assign[t.Var] {
				case 1:
					min += t.Coef
					max += t.Coef
				case -1:
					if t.Coef > 0 {
						max += t.Coef
					} else {
						min += t.Coef
					}
				}
			}
			if min > c.hi || max < c.lo {
				return false
			}

			for _, t := range c.terms {
				if s.assign[t.Var] != -1 {
					continue
				}
				var min1, max1, min0, max0 int
				if t.Coef > 0 {
					min1, max1 = min+t.Coef, max
					min0, max0 = min, max-t.Coef
				} else {
					min1, max1 = min, max+t.Coef
					min0, max0 = min-t.Coef, max
				}
				can1 := min1 <= c.hi && max1 >= c.lo
				can0 := min0 <= c.hi && max0 >= c.lo
				switch {
				case !can1 && !can0:
					return false
				case !can1:
					s.set(t.Var, 0)
					min, max = min0, max0
					changed = true
				case !can0:
					s.set(t.Var, 1)
					min, max = min1, max1
					changed = true
				}
			}
		}
	}
	return true
}

func (s *searcher) overBudget() bool {
	if s.decisions > s.maxDec {
		return true
	}
	if s.decisions&1023 == 0 {
		if time.Now().After(s.deadline) {
			return true
		}
		select {
		case <-s.ctx.Done():
			return true
		default:
		}
	}
	return false
}

func (s *searcher) pickVar() Var {
	for _, v := range s.order {
		if s.assign[v] == -1 {
			return v
		}
	}
	return -1
}

// dfs 深度优先搜索。返回 1 找到解，0 穷尽无解，-1 预算耗尽。
func (s *searcher) dfs() int8 {
	if s.overBudget() {
		s.aborted = true
		return -1
	}
	v := s.pickVar()
	if v == -1 {
		return 1
	}
	for _, val := range [2]int8{0, 1} {
		mark := len(s.trail)
		s.decisions++
		s.set(v, val)
		if s.propagate() {
			switch s.dfs() {
			case 1:
				return 1
			case -1:
				return -1
			}
		}
		s.undo(mark)
	}
	return 0
}

// run 执行一次完整搜索
func (s *searcher) run() int8 {
	if !s.propagate() {
		return 0
	}
	return s.dfs()
}

func cloneValues(src []int8) []int8 {
	out := make([]int8, len(src))
	copy(out, src)
	return out
}

// Solve 在预算内求解当前模型。
// 设定了目标时通过逐步收紧目标界限寻找最优解。
func (m *Model) Solve(ctx context.Context) *Result {
	start := time.Now()
	deadline := start.Add(m.opts.TimeLimit)
	res := &Result{Status: StatusUnknown}

	s := newSearcher(ctx, m, deadline, m.opts.MaxDecisions)
	switch s.run() {
	case 0:
		res.Status = StatusInfeasible
	case -1:
		res.Status = StatusUnknown
	case 1:
		best := cloneValues(s.assign)
		if !m.hasObjective {
			res.Status = StatusOptimal
		} else {
			bestVal := m.evalObjective(best)
			proven := false
			used := s.decisions
			for used <= m.opts.MaxDecisions {
				lo, hi := NoLower, bestVal-1
				if m.maximize {
					lo, hi = bestVal+1, NoUpper
				}
				m.cons = append(m.cons, constraint{terms: m.objective, lo: lo, hi: hi})
				s2 := newSearcher(ctx, m, deadline, m.opts.MaxDecisions-used)
				r := s2.run()
				m.cons = m.cons[:len(m.cons)-1]
				used += s2.decisions

				if r == 1 {
					best = cloneValues(s2.assign)
					bestVal = m.evalObjective(best)
					continue
				}
				if r == 0 {
					proven = true
				}
				break
			}
			if proven {
				res.Status = StatusOptimal
			} else {
				res.Status = StatusFeasible
			}
			res.Objective = bestVal
			s.decisions = used
		}
		res.values = best
	}

	res.Decisions = s.decisions
	res.Elapsed = time.Since(start)
	return res
}
