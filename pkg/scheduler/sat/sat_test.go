package sat

import (
	"context"
	"testing"
	"time"
)

func newTestModel() *Model {
	return NewModel(Options{TimeLimit: 2 * time.Second, MaxDecisions: 100000})
}

func TestSolve_SimpleFeasible(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	c := m.NewBoolVar("c")

	// 恰好选两个
	m.AddSumRange([]Var{a, b, c}, 2, 2)
	// a 与 b 互斥
	m.AddAtMostOne(a, b)

	res := m.Solve(context.Background())
	if res.Status != StatusOptimal {
		t.Fatalf("Status = %v, expected optimal", res.Status)
	}
	if res.Value(c) != 1 {
		t.Error("c 必须被选中")
	}
	if res.Value(a)+res.Value(b) != 1 {
		t.Error("a、b 中应恰好选一个")
	}
}

func TestSolve_Infeasible(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")

	m.AddSumRange([]Var{a, b}, 2, 2)
	m.AddAtMostOne(a, b)

	res := m.Solve(context.Background())
	if res.Status != StatusInfeasible {
		t.Errorf("Status = %v, expected infeasible", res.Status)
	}
}

func TestSolve_Fix(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")

	m.AddSumRange([]Var{a, b}, 1, 1)
	m.Fix(a, 1)

	res := m.Solve(context.Background())
	if !res.Feasible() {
		t.Fatalf("Status = %v, expected feasible", res.Status)
	}
	if res.Value(a) != 1 || res.Value(b) != 0 {
		t.Errorf("解 = (%d,%d), expected (1,0)", res.Value(a), res.Value(b))
	}
}

func TestSolve_Implication(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")

	m.AddImplication(a, b)
	m.Fix(a, 1)
	m.Fix(b, 0)

	if res := m.Solve(context.Background()); res.Status != StatusInfeasible {
		t.Errorf("Status = %v, expected infeasible", res.Status)
	}
}

func TestSolve_Minimize(t *testing.T) {
	m := newTestModel()
	vars := make([]Var, 4)
	for i := range vars {
		vars[i] = m.NewBoolVar("x")
	}
	// 至少选两个，目标最少惩罚：前两个惩罚 1，后两个惩罚 3
	m.AddSumRange(vars, 2, 4)
	m.Minimize([]Term{
		{Var: vars[0], Coef: 1},
		{Var: vars[1], Coef: 1},
		{Var: vars[2], Coef: 3},
		{Var: vars[3], Coef: 3},
	})

	res := m.Solve(context.Background())
	if res.Status != StatusOptimal {
		t.Fatalf("Status = %v, expected optimal", res.Status)
	}
	if res.Objective != 2 {
		t.Errorf("Objective = %d, expected 2", res.Objective)
	}
	if res.Value(vars[0]) != 1 || res.Value(vars[1]) != 1 {
		t.Error("最优解应选中惩罚最小的两个变量")
	}
}

func TestSolve_Maximize(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	c := m.NewBoolVar("c")

	// 最多选两个，收益 a=5, b=3, c=4
	m.AddSumRange([]Var{a, b, c}, NoLower, 2)
	m.Maximize([]Term{{Var: a, Coef: 5}, {Var: b, Coef: 3}, {Var: c, Coef: 4}})

	res := m.Solve(context.Background())
	if res.Status != StatusOptimal {
		t.Fatalf("Status = %v, expected optimal", res.Status)
	}
	if res.Objective != 9 {
		t.Errorf("Objective = %d, expected 9", res.Objective)
	}
	if res.Value(a) != 1 || res.Value(c) != 1 || res.Value(b) != 0 {
		t.Error("最优解应选中 a 和 c")
	}
}

func TestCheckpointRollback(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")
	m.AddSumRange([]Var{a, b}, 1, 2)

	cp := m.Checkpoint()
	m.Fix(a, 1)
	m.Fix(a, 0) // 矛盾

	if res := m.Solve(context.Background()); res.Status != StatusInfeasible {
		t.Fatalf("矛盾约束下 Status = %v, expected infeasible", res.Status)
	}

	m.RollbackTo(cp)
	if m.ConstraintCount() != 1 {
		t.Errorf("回滚后约束数 = %d, expected 1", m.ConstraintCount())
	}
	if res := m.Solve(context.Background()); !res.Feasible() {
		t.Errorf("回滚后 Status = %v, expected feasible", res.Status)
	}
}

func TestSolve_NegativeCoefficients(t *testing.T) {
	m := newTestModel()
	a := m.NewBoolVar("a")
	b := m.NewBoolVar("b")

	// b - a >= 1 等价于 b=1 且 a=0
	m.AddLinear([]Term{{Var: b, Coef: 1}, {Var: a, Coef: -1}}, 1, NoUpper)

	res := m.Solve(context.Background())
	if !res.Feasible() {
		t.Fatalf("Status = %v, expected feasible", res.Status)
	}
	if res.Value(a) != 0 || res.Value(b) != 1 {
		t.Errorf("解 = (%d,%d), expected (0,1)", res.Value(a), res.Value(b))
	}
}

func TestSolve_CancelledContext(t *testing.T) {
	m := NewModel(Options{TimeLimit: time.Minute, MaxDecisions: 1 << 30})
	// 足够大的无结构模型，保证不能在首次预算检查前完成
	n := 24
	vars := make([]Var, n)
	for i := range vars {
		vars[i] = m.NewBoolVar("x")
	}
	for i := 0; i+3 < n; i++ {
		m.AddSumRange([]Var{vars[i], vars[i+1], vars[i+2], vars[i+3]}, 1, 3)
	}
	m.Minimize([]Term{{Var: vars[0], Coef: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := m.Solve(ctx)
	// 取消后要么已找到解（Feasible/Optimal），要么 Unknown，绝不能悬挂
	if res.Status == StatusInfeasible {
		t.Errorf("取消的上下文不应证明无解, got %v", res.Status)
	}
}

func TestSolve_TimeLimit(t *testing.T) {
	m := NewModel(Options{TimeLimit: time.Nanosecond, MaxDecisions: 1 << 30})
	vars := make([]Var, 30)
	for i := range vars {
		vars[i] = m.NewBoolVar("x")
	}
	m.AddSumRange(vars, 15, 15)

	res := m.Solve(context.Background())
	if res.Status == StatusInfeasible {
		t.Errorf("超时不应证明无解, got %v", res.Status)
	}
}
