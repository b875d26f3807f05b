package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/spatipan/shift-scheduler/pkg/errors"
	"github.com/spatipan/shift-scheduler/pkg/logger"
	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/availability"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/sat"
)

// Options 驱动配置
type Options struct {
	TimeLimit        time.Duration   // 单次求解的墙钟预算
	MaxDecisions     int             // 单次求解的最大分支次数
	OverlapTolerance time.Duration   // 宽松可用性的累计重叠容差
	Tables           *catalog.Tables // 策略表，nil 使用默认表
}

// Driver 分阶段求解驱动。
// 逐组提交约束：检查点、添加、求解，不可行则回滚该组并继续，
// 全部硬约束提交成功后才进入软目标阶段。
type Driver struct {
	opts Options
	log  *logger.SolverLogger
}

// New 创建求解驱动
func New(opts Options) *Driver {
	return &Driver{
		opts: opts,
		log:  logger.NewSolverLogger(),
	}
}

// Result 一次求解的结果
type Result struct {
	Schedule            *model.Schedule
	Log                 *RunLog
	Grid                Grid
	ConstraintsComplete bool            // 全部硬约束是否都已提交
	SkippedDates        map[string]bool // 存在被跳过硬约束组的日期
	Elapsed             time.Duration
	Decisions           int
}

// Run 对排班执行完整求解。
// 运行总是产出排班与运行日志；单个约束组的不可行不会中断求解。
func (d *Driver) Run(ctx context.Context, sched *model.Schedule) (*Result, error) {
	if sched == nil {
		return nil, errors.InvalidInput("schedule", "不能为空")
	}
	start := time.Now()
	d.log.StartRun(sched.ID.String(), len(sched.Workers), len(sched.Shifts))

	m := sat.NewModel(sat.Options{
		TimeLimit:    d.opts.TimeLimit,
		MaxDecisions: d.opts.MaxDecisions,
	})
	ix := availability.New(d.opts.OverlapTolerance)
	b := catalog.NewBuilder(sched, ix, d.opts.Tables)
	b.Warn = d.log.PinnedUnavailable
	b.DeclareVars(m)

	res := &Result{
		Schedule:            sched,
		Log:                 &RunLog{},
		ConstraintsComplete: true,
		SkippedDates:        make(map[string]bool),
	}

	var last *sat.Result
	for _, g := range b.Groups() {
		if g.Stage == catalog.StageObjective && !res.ConstraintsComplete {
			res.Log.Add(string(g.Stage), g.Key, OutcomeSkipped, "硬约束未完整提交")
			continue
		}

		cp := m.Checkpoint()
		objective, err := buildGroup(m, g)
		if err != nil {
			m.ClearObjective()
			m.RollbackTo(cp)
			res.Log.Add(string(g.Stage), g.Key, OutcomeError, err.Error())
			d.log.GroupSkipped(string(g.Stage), g.Key, err.Error())
			d.markIncomplete(res, g)
			continue
		}
		if len(objective) > 0 {
			m.Minimize(objective)
		}

		solved, err := solveModel(ctx, m)
		if err != nil {
			m.ClearObjective()
			m.RollbackTo(cp)
			res.Log.Add(string(g.Stage), g.Key, OutcomeError, err.Error())
			d.log.GroupSkipped(string(g.Stage), g.Key, err.Error())
			d.markIncomplete(res, g)
			continue
		}
		res.Decisions += solved.Decisions

		if !solved.Feasible() {
			m.ClearObjective()
			m.RollbackTo(cp)
			reason := solved.Status.String()
			res.Log.Add(string(g.Stage), g.Key, OutcomeSkipped, reason)
			d.log.GroupSkipped(string(g.Stage), g.Key, reason)
			d.markIncomplete(res, g)
			continue
		}

		// 目标组提交后把目标值固化为界限，后续组不得使其退化
		if len(objective) > 0 {
			m.AddLinear(objective, sat.NoLower, solved.Objective)
			m.ClearObjective()
		}
		last = solved
		res.Log.Add(string(g.Stage), g.Key, OutcomeCommitted, "")
		d.log.GroupCommitted(string(g.Stage), g.Key, solved.Elapsed)
	}

	if last == nil {
		if final, err := solveModel(ctx, m); err == nil {
			last = final
			res.Decisions += final.Decisions
		}
	}

	d.extract(b, last, res)
	res.Grid = BuildGrid(sched)
	res.Elapsed = time.Since(start)
	d.log.RunComplete(sched.ID.String(), res.Elapsed, res.Log.Committed(), res.Log.Skipped(), res.ConstraintsComplete)
	return res, nil
}

// markIncomplete 记录硬约束组失败的影响范围
func (d *Driver) markIncomplete(res *Result, g catalog.Group) {
	if g.Stage == catalog.StageObjective {
		return
	}
	res.ConstraintsComplete = false
	if g.Date != "" {
		res.SkippedDates[g.Date] = true
	}
}

// buildGroup 执行约束组构建，构建过程的 panic 作为错误返回
func buildGroup(m *sat.Model, g catalog.Group) (objective []sat.Term, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.CodeInternal, fmt.Sprintf("约束组构建失败: %v", p))
		}
	}()
	return g.Build(m)
}

// solveModel 执行求解，求解器的 panic 作为错误返回
func solveModel(ctx context.Context, m *sat.Model) (res *sat.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.CodeInternal, fmt.Sprintf("求解失败: %v", p))
		}
	}()
	return m.Solve(ctx), nil
}
