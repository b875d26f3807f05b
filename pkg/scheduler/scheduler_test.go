package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
)

var emsType = &model.ShiftType{Name: "ems", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1}

// emsTables 只含一个全日班类型的策略表
func emsTables() *catalog.Tables {
	return &catalog.Tables{
		Types: []*model.ShiftType{emsType},
		Fairness: []catalog.FairnessRule{
			{Name: "ems", Types: []string{"ems"}, DeltaMin: 0, DeltaMax: 1},
		},
		DailyCap: 2,
	}
}

func testDriver() *Driver {
	return New(Options{
		TimeLimit:    2 * time.Second,
		MaxDecisions: 200000,
		Tables:       emsTables(),
	})
}

// threeDaySchedule 3 天、每天一个 ems 班、两名人员
func threeDaySchedule(t *testing.T) *model.Schedule {
	t.Helper()
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s, err := model.NewSchedule("测试", start, start.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	for _, abbr := range []string{"AB", "CD"} {
		w := &model.Worker{BaseModel: model.NewBaseModel(), Abbreviation: abbr, Active: true}
		if err := s.AddWorker(w); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := s.AddShift(model.NewShift(emsType, start.AddDate(0, 0, i))); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestDriver_FairnessSplit(t *testing.T) {
	s := threeDaySchedule(t)

	res, err := testDriver().Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.ConstraintsComplete {
		t.Fatalf("硬约束应全部提交, log = %+v", res.Log.Entries)
	}

	// 每个班次恰好一人
	for _, sh := range s.Shifts {
		if len(sh.Workers) != 1 {
			t.Errorf("班次 %s 分配人数 = %d, expected 1", sh.Key(), len(sh.Workers))
		}
	}

	// 3 个班次在 2 人之间只能 2-1 分配
	ab, _ := s.WorkerByAbbr("AB")
	cd, _ := s.WorkerByAbbr("CD")
	counts := []int{ab.CountByType("ems"), cd.CountByType("ems")}
	if counts[0]+counts[1] != 3 {
		t.Fatalf("总分配数 = %d, expected 3", counts[0]+counts[1])
	}
	for _, c := range counts {
		if c < 1 || c > 2 {
			t.Errorf("人员班次数 = %d, 应在 [1,2] 内", c)
		}
	}
}

func TestDriver_PinOverridesAvailability(t *testing.T) {
	s := threeDaySchedule(t)

	// AB 在第一天被任务占满，但钉定优先
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	task, err := model.NewTask("全天占用", model.TimeRange{Start: day, End: day.Add(24 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddTask("AB", task); err != nil {
		t.Fatal(err)
	}
	if err := s.Pin("2026-01-05", "ems", "AB"); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}

	res, err := testDriver().Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.ConstraintsComplete {
		t.Fatalf("钉定覆盖可用性时硬约束仍应可行, log = %+v", res.Log.Entries)
	}

	sh, _ := s.ShiftOn("2026-01-05", "ems")
	if len(sh.Workers) != 1 || !sh.HasWorker("AB") {
		t.Errorf("钉定人员应保留在班次上, workers = %v", sh.Workers)
	}
}

func TestDriver_InfeasibleDateSkipped(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s, err := model.NewSchedule("不可行", start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	for _, abbr := range []string{"AB", "CD"} {
		if err := s.AddWorker(&model.Worker{BaseModel: model.NewBaseModel(), Abbreviation: abbr, Active: true}); err != nil {
			t.Fatal(err)
		}
	}
	// 第一天要求 3 人但只有 2 人，第二天正常
	big := &model.ShiftType{Name: "ems", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 3, MaxNeeded: 3}
	if err := s.AddShift(model.NewShift(big, start)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddShift(model.NewShift(emsType, start.AddDate(0, 0, 1))); err != nil {
		t.Fatal(err)
	}

	d := New(Options{
		TimeLimit:    2 * time.Second,
		MaxDecisions: 200000,
		Tables: &catalog.Tables{
			Types:    []*model.ShiftType{emsType},
			DailyCap: 2,
		},
	})
	res, err := d.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.ConstraintsComplete {
		t.Error("存在不可行组时 ConstraintsComplete 应为 false")
	}
	if !res.SkippedDates["2026-01-05"] {
		t.Error("不可行日期应被记入 SkippedDates")
	}
	if e, ok := res.Log.ByKey("date:2026-01-05/coverage"); !ok || e.Outcome != OutcomeSkipped {
		t.Errorf("人数组应被跳过, entry = %+v", e)
	}

	// 被跳过日期不做提取
	sh1, _ := s.ShiftOn("2026-01-05", "ems")
	if len(sh1.Workers) != 0 {
		t.Errorf("被跳过日期不应有分配, workers = %v", sh1.Workers)
	}
	// 其余日期照常求解
	sh2, _ := s.ShiftOn("2026-01-06", "ems")
	if len(sh2.Workers) != 1 {
		t.Errorf("正常日期应有分配, workers = %v", sh2.Workers)
	}

	// 硬约束不完整时软目标整体跳过
	for _, e := range res.Log.Entries {
		if e.Stage == string(catalog.StageObjective) && e.Outcome == OutcomeCommitted {
			t.Errorf("软目标不应提交: %+v", e)
		}
	}
}

func TestDriver_PinnedReplayNotDuplicated(t *testing.T) {
	s := threeDaySchedule(t)
	if err := s.Pin("2026-01-06", "ems", "CD"); err != nil {
		t.Fatal(err)
	}

	res, err := testDriver().Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.ConstraintsComplete {
		t.Fatalf("log = %+v", res.Log.Entries)
	}

	sh, _ := s.ShiftOn("2026-01-06", "ems")
	if len(sh.Workers) != 1 {
		t.Errorf("钉定班次提取后人数 = %d, expected 1", len(sh.Workers))
	}
	cd, _ := s.WorkerByAbbr("CD")
	if got := cd.CountByType("ems"); got < 1 {
		t.Errorf("钉定人员班次数 = %d, expected >= 1", got)
	}
}

func TestDriver_RoleEligibilitySurvivesWorkerGroupSkip(t *testing.T) {
	avdType := &model.ShiftType{Name: "avd", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1, Role: "specialist"}
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s, err := model.NewSchedule("资格测试", start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	ab := &model.Worker{BaseModel: model.NewBaseModel(), Abbreviation: "AB", Role: "staff", Active: true}
	sp := &model.Worker{BaseModel: model.NewBaseModel(), Abbreviation: "SP", Role: "specialist", Active: true}
	for _, w := range []*model.Worker{ab, sp} {
		if err := s.AddWorker(w); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddShift(model.NewShift(avdType, start)); err != nil {
		t.Fatal(err)
	}
	// AB 的人工指定值无法满足，其人员级约束组整组回滚
	s.Policy.SetGroupOverride("AB", "avd", 5)

	d := New(Options{
		TimeLimit:    2 * time.Second,
		MaxDecisions: 200000,
		Tables: &catalog.Tables{
			Types: []*model.ShiftType{avdType},
			Fairness: []catalog.FairnessRule{
				{Name: "avd", Types: []string{"avd"}, DeltaMin: 0, DeltaMax: 1},
			},
			DailyCap: 2,
		},
	})
	res, err := d.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if e, ok := res.Log.ByKey("worker:AB"); !ok || e.Outcome != OutcomeSkipped {
		t.Fatalf("AB 的人员级组应被跳过, entry = %+v", e)
	}
	if e, ok := res.Log.ByKey("date:2026-01-05/eligibility"); !ok || e.Outcome != OutcomeCommitted {
		t.Fatalf("资格组应独立提交, entry = %+v", e)
	}
	if res.ConstraintsComplete {
		t.Error("人员级组被跳过时 ConstraintsComplete 应为 false")
	}

	// 岗位资格不随人员级组回滚丢失
	sh, _ := s.ShiftOn("2026-01-05", "avd")
	if sh.HasWorker("AB") {
		t.Errorf("不具备岗位的人员不应被分配, workers = %v", sh.Workers)
	}
	if len(sh.Workers) != 1 || !sh.HasWorker("SP") {
		t.Errorf("班次应由具备岗位的人员承担, workers = %v", sh.Workers)
	}
}

func TestDriver_FullPinReplayIdempotent(t *testing.T) {
	s1 := threeDaySchedule(t)
	res1, err := testDriver().Run(context.Background(), s1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res1.ConstraintsComplete {
		t.Fatalf("log = %+v", res1.Log.Entries)
	}

	// 把第一次的全部分配钉定到同输入的新排班上重新求解
	s2 := threeDaySchedule(t)
	for _, sh := range s1.Shifts {
		for _, w := range sh.Workers {
			if err := s2.Pin(sh.Date(), sh.Type.Name, w.Abbreviation); err != nil {
				t.Fatal(err)
			}
		}
	}

	res2, err := testDriver().Run(context.Background(), s2)
	if err != nil {
		t.Fatalf("重放 Run() error = %v", err)
	}
	if !res2.ConstraintsComplete {
		t.Fatalf("全量钉定重放应可行, log = %+v", res2.Log.Entries)
	}

	for _, date := range s1.Dates() {
		if got, want := res2.Grid.Cell(date, "ems"), res1.Grid.Cell(date, "ems"); got != want {
			t.Errorf("重放后 %s 的分配 = %q, expected %q", date, got, want)
		}
	}
}

func TestDriver_ManualOverride(t *testing.T) {
	s := threeDaySchedule(t)
	s.Policy.SetGroupOverride("AB", "ems", 2)

	res, err := testDriver().Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.ConstraintsComplete {
		t.Fatalf("log = %+v", res.Log.Entries)
	}

	ab, _ := s.WorkerByAbbr("AB")
	if got := ab.CountByType("ems"); got != 2 {
		t.Errorf("人工指定后 AB 班次数 = %d, expected 2", got)
	}
}

func TestDriver_NilSchedule(t *testing.T) {
	if _, err := testDriver().Run(context.Background(), nil); err == nil {
		t.Error("空排班应返回错误")
	}
}

func TestGrid_Cell(t *testing.T) {
	s := threeDaySchedule(t)
	if err := s.Pin("2026-01-05", "ems", "AB"); err != nil {
		t.Fatal(err)
	}

	grid := BuildGrid(s)
	if got := grid.Cell("2026-01-05", "ems"); got != "AB" {
		t.Errorf("Cell() = %q, expected %q", got, "AB")
	}
	if got := grid.Cell("2026-01-06", "ems"); got != Unassigned {
		t.Errorf("未分配格子 = %q, expected %q", got, Unassigned)
	}
	if got := grid.Cell("2026-01-05", "mc"); got != Unassigned {
		t.Errorf("未知类型格子 = %q, expected %q", got, Unassigned)
	}
}
