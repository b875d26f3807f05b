package model

import (
	"testing"
	"time"

	"github.com/spatipan/shift-scheduler/pkg/errors"
)

var (
	testMorning = &ShiftType{Name: "service1", Offset: 8 * time.Hour, Length: 4 * time.Hour, MinNeeded: 1, MaxNeeded: 1}
	testFullDay = &ShiftType{Name: "ems", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 2}
)

func newTestSchedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule("测试排班",
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}
	return s
}

func newTestWorker(abbr string) *Worker {
	return &Worker{
		BaseModel:    NewBaseModel(),
		FirstName:    "测试",
		LastName:     abbr,
		Abbreviation: abbr,
		Role:         "staff",
		Active:       true,
	}
}

func TestNewSchedule_InvalidRange(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	if _, err := NewSchedule("倒置", day, day.AddDate(0, 0, -1)); !errors.Is(err, errors.CodeInvalidTimeRange) {
		t.Errorf("NewSchedule() error = %v, expected CodeInvalidTimeRange", err)
	}
	if _, err := NewSchedule("同日", day, day); !errors.Is(err, errors.CodeInvalidTimeRange) {
		t.Errorf("NewSchedule() error = %v, expected CodeInvalidTimeRange", err)
	}
}

func TestSchedule_AddWorker(t *testing.T) {
	s := newTestSchedule(t)

	if err := s.AddWorker(newTestWorker("AB")); err != nil {
		t.Fatalf("AddWorker() error = %v", err)
	}
	if err := s.AddWorker(newTestWorker("AB")); !errors.Is(err, errors.CodeAlreadyExists) {
		t.Errorf("重复添加 error = %v, expected CodeAlreadyExists", err)
	}
	if _, err := s.WorkerByAbbr("AB"); err != nil {
		t.Errorf("WorkerByAbbr() error = %v", err)
	}
	if _, err := s.WorkerByAbbr("XX"); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("未知人员 error = %v, expected CodeNotFound", err)
	}
}

func TestSchedule_AddShift_OutOfRange(t *testing.T) {
	s := newTestSchedule(t)

	inside := NewShift(testMorning, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC))
	if err := s.AddShift(inside); err != nil {
		t.Fatalf("AddShift() error = %v", err)
	}

	outside := NewShift(testMorning, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))
	if err := s.AddShift(outside); !errors.Is(err, errors.CodeOutOfRange) {
		t.Errorf("范围外班次 error = %v, expected CodeOutOfRange", err)
	}
}

func TestSchedule_Assign(t *testing.T) {
	s := newTestSchedule(t)
	w := newTestWorker("AB")
	if err := s.AddWorker(w); err != nil {
		t.Fatal(err)
	}
	sh := NewShift(testMorning, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err := s.AddShift(sh); err != nil {
		t.Fatal(err)
	}

	if err := s.Assign(sh, w); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if !sh.HasWorker("AB") || len(w.Shifts) != 1 {
		t.Error("分配应双向追加")
	}

	// 重复分配
	if err := s.Assign(sh, w); !errors.Is(err, errors.CodeAlreadyAssigned) {
		t.Errorf("重复分配 error = %v, expected CodeAlreadyAssigned", err)
	}

	// 超出容量
	w2 := newTestWorker("CD")
	if err := s.AddWorker(w2); err != nil {
		t.Fatal(err)
	}
	if err := s.Assign(sh, w2); !errors.Is(err, errors.CodeCapacityExceeded) {
		t.Errorf("超容量分配 error = %v, expected CodeCapacityExceeded", err)
	}

	// 未登记人员
	ghost := newTestWorker("ZZ")
	if err := s.Assign(sh, ghost); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("未登记人员 error = %v, expected CodeNotFound", err)
	}
}

func TestSchedule_Pin_Idempotent(t *testing.T) {
	s := newTestSchedule(t)
	if err := s.AddWorker(newTestWorker("AB")); err != nil {
		t.Fatal(err)
	}
	sh := NewShift(testFullDay, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err := s.AddShift(sh); err != nil {
		t.Fatal(err)
	}

	if err := s.Pin("2026-01-05", "ems", "AB"); err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if !sh.IsPinned("AB") {
		t.Error("Pin() 后应标记钉定")
	}

	// 幂等重放
	if err := s.Pin("2026-01-05", "ems", "AB"); err != nil {
		t.Errorf("重复 Pin() error = %v, expected nil", err)
	}
	if len(sh.Workers) != 1 {
		t.Errorf("重复 Pin() 后班次人数 = %d, expected 1", len(sh.Workers))
	}

	if err := s.Pin("2026-01-05", "ems", "ZZ"); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("钉定未知人员 error = %v, expected CodeNotFound", err)
	}
	if err := s.Pin("2026-01-06", "mc", "AB"); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("钉定未知班次 error = %v, expected CodeNotFound", err)
	}
}

func TestSchedule_AddTask(t *testing.T) {
	s := newTestSchedule(t)
	if err := s.AddWorker(newTestWorker("AB")); err != nil {
		t.Fatal(err)
	}

	task, err := NewTask("门诊", tr(8, 12))
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := s.AddTask("AB", task); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	w, _ := s.WorkerByAbbr("AB")
	if len(w.Tasks) != 1 {
		t.Errorf("任务数 = %d, expected 1", len(w.Tasks))
	}

	if _, err := NewTask("空任务", tr(12, 12)); !errors.Is(err, errors.CodeInvalidTimeRange) {
		t.Errorf("零时长任务 error = %v, expected CodeInvalidTimeRange", err)
	}
}

func TestShiftType_DayPart(t *testing.T) {
	tests := []struct {
		name      string
		st        *ShiftType
		morning   bool
		afternoon bool
		partial   bool
	}{
		{name: "上午半日班", st: &ShiftType{Name: "service1", Offset: 8 * time.Hour, Length: 4 * time.Hour}, morning: true, afternoon: false, partial: true},
		{name: "下午半日班", st: &ShiftType{Name: "service2", Offset: 12 * time.Hour, Length: 4 * time.Hour}, morning: false, afternoon: true, partial: true},
		{name: "全日班", st: &ShiftType{Name: "ems", Offset: 8 * time.Hour, Length: 8 * time.Hour}, morning: false, afternoon: false, partial: false},
		{name: "夜班两者皆非", st: &ShiftType{Name: "service night", Offset: 0, Length: 8 * time.Hour}, morning: false, afternoon: false, partial: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.IsMorning(); got != tt.morning {
				t.Errorf("IsMorning() = %v, expected %v", got, tt.morning)
			}
			if got := tt.st.IsAfternoon(); got != tt.afternoon {
				t.Errorf("IsAfternoon() = %v, expected %v", got, tt.afternoon)
			}
			if got := tt.st.IsPartial(); got != tt.partial {
				t.Errorf("IsPartial() = %v, expected %v", got, tt.partial)
			}
		})
	}
}
