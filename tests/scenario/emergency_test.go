// Package scenario 提供场景测试
package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
)

func createWorker(first, abbr string) *model.Worker {
	return &model.Worker{
		BaseModel:    model.NewBaseModel(),
		FirstName:    first,
		Abbreviation: abbr,
		Role:         "staff",
		Active:       true,
	}
}

func typeByName(t *testing.T, tables *catalog.Tables, name string) *model.ShiftType {
	t.Helper()
	for _, st := range tables.Types {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("策略表缺少类型 %s", name)
	return nil
}

// TestEmergencyDepartmentSchedule 急诊科两日排班场景测试
func TestEmergencyDepartmentSchedule(t *testing.T) {
	tables := catalog.Default()
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	sched, err := model.NewSchedule("急诊科一月排班", start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}

	names := [][2]string{
		{"张三", "ZS"}, {"李四", "LS"}, {"王五", "WW"},
		{"赵六", "ZL"}, {"钱七", "QQ"}, {"孙八", "SB"},
	}
	for _, n := range names {
		if err := sched.AddWorker(createWorker(n[0], n[1])); err != nil {
			t.Fatal(err)
		}
	}

	dayTypes := []string{"service night", "service1", "service2", "ems"}
	for i := 0; i < 2; i++ {
		day := start.AddDate(0, 0, i)
		for _, name := range dayTypes {
			if err := sched.AddShift(model.NewShift(typeByName(t, tables, name), day)); err != nil {
				t.Fatal(err)
			}
		}
	}

	// 钉定：张三第一天夜班
	if err := sched.Pin("2026-01-05", "service night", "ZS"); err != nil {
		t.Fatal(err)
	}

	d := scheduler.New(scheduler.Options{
		TimeLimit:    5 * time.Second,
		MaxDecisions: 500000,
		Tables:       tables,
	})
	res, err := d.Run(context.Background(), sched)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !res.ConstraintsComplete {
		t.Fatalf("硬约束应全部提交, log = %+v", res.Log.Entries)
	}

	// 每个班次恰好一人
	for _, sh := range sched.Shifts {
		if len(sh.Workers) != 1 {
			t.Errorf("班次 %s 分配人数 = %d, expected 1", sh.Key(), len(sh.Workers))
		}
	}

	// 钉定保留
	night, _ := sched.ShiftOn("2026-01-05", "service night")
	if !night.HasWorker("ZS") {
		t.Error("钉定的夜班人员应保留")
	}

	// 同日互斥：没有人同日承担夜班和其他班次
	for _, date := range sched.Dates() {
		for _, w := range sched.Workers {
			var typesTaken []string
			for _, sh := range sched.ShiftsOn(date) {
				if sh.HasWorker(w.Abbreviation) {
					typesTaken = append(typesTaken, sh.Type.Name)
				}
			}
			for i, t1 := range typesTaken {
				for _, t2 := range typesTaken[i+1:] {
					if tables.IsIncompatible(t1, t2) {
						t.Errorf("人员 %s 在 %s 同日承担互斥班次 %s 和 %s", w.Abbreviation, date, t1, t2)
					}
				}
			}
		}
	}

	// 结果表完整
	for _, date := range sched.Dates() {
		for _, name := range dayTypes {
			if res.Grid.Cell(date, name) == scheduler.Unassigned {
				t.Errorf("格子 [%s][%s] 不应为空", date, name)
			}
		}
	}

	// 运行日志记录了全部约束组
	if res.Log.Committed() == 0 {
		t.Error("运行日志应包含已提交的约束组")
	}
}

// TestEmergencyDegradation 超额需求下的优雅降级场景测试
func TestEmergencyDegradation(t *testing.T) {
	tables := catalog.Default()
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	sched, err := model.NewSchedule("人手不足", start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if err := sched.AddWorker(createWorker("张三", "ZS")); err != nil {
		t.Fatal(err)
	}

	// 一个人无法同日承担互斥的夜班和 ems
	for _, name := range []string{"service night", "ems"} {
		for i := 0; i < 2; i++ {
			if err := sched.AddShift(model.NewShift(typeByName(t, tables, name), start.AddDate(0, 0, i))); err != nil {
				t.Fatal(err)
			}
		}
	}

	d := scheduler.New(scheduler.Options{
		TimeLimit:    5 * time.Second,
		MaxDecisions: 500000,
		Tables:       tables,
	})
	res, err := d.Run(context.Background(), sched)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// 求解必须完成且产出日志，而不是整体失败
	if res.ConstraintsComplete {
		t.Error("人手不足时硬约束不应全部提交")
	}
	if res.Log.Skipped() == 0 {
		t.Error("应有被跳过的约束组")
	}
	if len(res.Log.Entries) == 0 {
		t.Error("运行日志不应为空")
	}
}
