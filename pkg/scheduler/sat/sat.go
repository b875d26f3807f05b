// Package sat 提供排班求解使用的布尔线性约束求解原语。
//
// 模型由 0/1 变量和带上下界的线性约束组成，支持检查点与回滚：
// 约束保存在只追加的日志中，回滚即截断。
package sat

import (
	"math"
	"time"
)

// 界限哨兵值
const (
	NoLower = math.MinInt32 // 无下界
	NoUpper = math.MaxInt32 // 无上界
)

// Var 布尔变量句柄
type Var int

// Term 线性项（系数 × 变量）
type Term struct {
	Var  Var
	Coef int
}

// constraint 线性约束 lo <= sum(terms) <= hi
type constraint struct {
	terms []Term
	lo    int
	hi    int
}

// Options 求解选项
type Options struct {
	TimeLimit    time.Duration // 单次求解的墙钟预算
	MaxDecisions int           // 单次求解的最大分支次数
}

// Model 约束模型
type Model struct {
	opts  Options
	names []string
	cons  []constraint

	objective    []Term
	maximize     bool
	hasObjective bool
}

// NewModel 创建约束模型
func NewModel(opts Options) *Model {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = 5 * time.Second
	}
	if opts.MaxDecisions <= 0 {
		opts.MaxDecisions = 200000
	}
	return &Model{opts: opts}
}

// NewBoolVar 声明布尔变量
func (m *Model) NewBoolVar(name string) Var {
	m.names = append(m.names, name)
	return Var(len(m.names) - 1)
}

// VarCount 返回变量数
func (m *Model) VarCount() int {
	return len(m.names)
}

// ConstraintCount 返回约束数
func (m *Model) ConstraintCount() int {
	return len(m.cons)
}

// Name 返回变量名
func (m *Model) Name(v Var) string {
	return m.names[v]
}

// AddLinear 添加线性约束 lo <= sum(terms) <= hi
func (m *Model) AddLinear(terms []Term, lo, hi int) {
	ts := make([]Term, len(terms))
	copy(ts, terms)
	m.cons = append(m.cons, constraint{terms: ts, lo: lo, hi: hi})
}

// AddSumRange 添加变量和的范围约束 lo <= sum(vars) <= hi
func (m *Model) AddSumRange(vars []Var, lo, hi int) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	m.cons = append(m.cons, constraint{terms: terms, lo: lo, hi: hi})
}

// AddAtMostOne 添加互斥约束 sum(vars) <= 1
func (m *Model) AddAtMostOne(vars ...Var) {
	m.AddSumRange(vars, NoLower, 1)
}

// Fix 固定变量取值
func (m *Model) Fix(v Var, val int) {
	m.AddLinear([]Term{{Var: v, Coef: 1}}, val, val)
}

// AddImplication 添加蕴含约束 a=1 则 b=1
func (m *Model) AddImplication(a, b Var) {
	m.AddLinear([]Term{{Var: b, Coef: 1}, {Var: a, Coef: -1}}, 0, NoUpper)
}

// Minimize 设定最小化目标
func (m *Model) Minimize(terms []Term) {
	ts := make([]Term, len(terms))
	copy(ts, terms)
	m.objective = ts
	m.maximize = false
	m.hasObjective = true
}

// Maximize 设定最大化目标
func (m *Model) Maximize(terms []Term) {
	ts := make([]Term, len(terms))
	copy(ts, terms)
	m.objective = ts
	m.maximize = true
	m.hasObjective = true
}

// ClearObjective 清除目标
func (m *Model) ClearObjective() {
	m.objective = nil
	m.maximize = false
	m.hasObjective = false
}

// Checkpoint 模型检查点
type Checkpoint struct {
	vars int
	cons int
}

// Checkpoint 记录当前模型位置
func (m *Model) Checkpoint() Checkpoint {
	return Checkpoint{vars: len(m.names), cons: len(m.cons)}
}

// RollbackTo 回滚到检查点，截断其后添加的变量和约束
func (m *Model) RollbackTo(cp Checkpoint) {
	m.names = m.names[:cp.vars]
	m.cons = m.cons[:cp.cons]
}

// evalObjective 计算目标在给定赋值下的取值（按最小化方向）
func (m *Model) evalObjective(values []int8) int {
	total := 0
	for _, t := range m.objective {
		if values[t.Var] == 1 {
			total += t.Coef
		}
	}
	return total
}
