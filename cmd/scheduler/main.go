// 排班求解引擎
// 主程序入口

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spatipan/shift-scheduler/internal/config"
	"github.com/spatipan/shift-scheduler/internal/database"
	"github.com/spatipan/shift-scheduler/internal/metrics"
	"github.com/spatipan/shift-scheduler/internal/repository"
	"github.com/spatipan/shift-scheduler/pkg/logger"
	"github.com/spatipan/shift-scheduler/pkg/scheduler"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/availability"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
	"github.com/spatipan/shift-scheduler/pkg/stats"
	"github.com/spatipan/shift-scheduler/pkg/validator"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	scheduleID := flag.String("schedule", "", "要求解的排班 ID")
	migrate := flag.Bool("migrate", false, "启动前创建缺失的数据表")
	dryRun := flag.Bool("dry-run", false, "求解后不写回数据库")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("排班求解引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n\n", BuildTime, GitCommit)

	if *scheduleID == "" {
		fmt.Fprintln(os.Stderr, "用法: scheduler -schedule <uuid> [-migrate] [-dry-run]")
		os.Exit(2)
	}
	id, err := uuid.Parse(*scheduleID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "排班 ID 无效: %v\n", err)
		os.Exit(2)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库连接失败")
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Error().Err(err).Msg("建表失败")
			os.Exit(1)
		}
	}

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	workerRepo := repository.NewWorkerRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db, workerRepo)

	sched, err := scheduleRepo.Load(ctx, id)
	if err != nil {
		logger.Error().Err(err).Str("schedule_id", id.String()).Msg("装载排班失败")
		os.Exit(1)
	}
	if sched == nil {
		logger.Error().Str("schedule_id", id.String()).Msg("排班不存在")
		os.Exit(1)
	}

	tables := catalog.Default()
	if cfg.Solver.DailyShiftCap > 0 {
		tables.DailyCap = cfg.Solver.DailyShiftCap
	}

	driver := scheduler.New(scheduler.Options{
		TimeLimit:        cfg.Solver.TimeLimit,
		MaxDecisions:     cfg.Solver.MaxDecisions,
		OverlapTolerance: cfg.Solver.OverlapTolerance,
		Tables:           tables,
	})

	res, err := driver.Run(ctx, sched)
	if err != nil {
		logger.Error().Err(err).Msg("求解失败")
		os.Exit(1)
	}

	metrics.RecordSolverRun(res.ConstraintsComplete, res.Elapsed, res.Decisions)
	for _, e := range res.Log.Entries {
		metrics.RecordConstraintGroup(e.Stage, string(e.Outcome))
	}

	// 独立复核求解结果
	conflicts := validator.NewConflictDetector(tables, availability.New(cfg.Solver.OverlapTolerance)).DetectAll(sched)
	if errs := validator.Errors(conflicts); len(errs) > 0 {
		for _, c := range errs {
			logger.Warn().
				Str("type", string(c.Type)).
				Str("worker", c.Worker).
				Str("date", c.Date).
				Msg(c.Message)
		}
	}

	coverage := stats.NewCoverageAnalyzer().Analyze(sched)
	fairness := stats.NewFairnessAnalyzer(tables).Analyze(sched)
	metrics.SetCoverageRate(id.String(), coverage.OverallCoverage)
	metrics.SetFairnessGini(id.String(), fairness.WorkloadGini)
	db.ReportPoolMetrics()

	if !*dryRun {
		entries := make([]repository.RunEntry, 0, len(res.Log.Entries))
		for _, e := range res.Log.Entries {
			entries = append(entries, repository.RunEntry{
				Stage:   e.Stage,
				Key:     e.Key,
				Outcome: string(e.Outcome),
				Reason:  e.Reason,
			})
		}
		if err := scheduleRepo.SaveResult(ctx, sched, entries); err != nil {
			logger.Error().Err(err).Msg("写回求解结果失败")
			os.Exit(1)
		}
	}

	printGrid(res)

	fmt.Printf("\n约束组: 提交 %d / 跳过 %d / 出错 %d，硬约束完整: %v\n",
		res.Log.Committed(), res.Log.Skipped(), res.Log.Errors(), res.ConstraintsComplete)
	fmt.Printf("覆盖率: %.1f%%  公平评分: %.1f  耗时: %s\n",
		coverage.OverallCoverage, fairness.OverallFairnessScore, res.Elapsed.Round(time.Millisecond))

	if !res.ConstraintsComplete {
		os.Exit(3)
	}
}

// serveMetrics 启动指标端点
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"shift-scheduler"}`))
	})

	logger.Info().Str("addr", addr).Msg("指标端点启动")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn().Err(err).Msg("指标端点退出")
	}
}

// printGrid 输出排班结果表
func printGrid(res *scheduler.Result) {
	sched := res.Schedule

	typeNames := make(map[string]bool)
	for _, sh := range sched.Shifts {
		typeNames[sh.Type.Name] = true
	}
	names := make([]string, 0, len(typeNames))
	for name := range typeNames {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-12s", "date")
	for _, name := range names {
		fmt.Printf("  %-14s", name)
	}
	fmt.Println()

	for _, date := range sched.Dates() {
		if len(sched.ShiftsOn(date)) == 0 {
			continue
		}
		fmt.Printf("%-12s", date)
		for _, name := range names {
			fmt.Printf("  %-14s", res.Grid.Cell(date, name))
		}
		if res.SkippedDates[date] {
			fmt.Print("  (部分约束被跳过)")
		}
		fmt.Println()
	}
}
