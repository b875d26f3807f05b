package availability

import (
	"testing"
	"time"

	"github.com/spatipan/shift-scheduler/pkg/model"
)

func rangeOn(day time.Time, startHour, hours int) model.TimeRange {
	start := day.Add(time.Duration(startHour) * time.Hour)
	return model.TimeRange{Start: start, End: start.Add(time.Duration(hours) * time.Hour)}
}

func workerWithTask(t *testing.T, day time.Time, startHour, hours int) *model.Worker {
	t.Helper()
	w := &model.Worker{BaseModel: model.NewBaseModel(), Abbreviation: "AB", Active: true}
	task, err := model.NewTask("占用", rangeOn(day, startHour, hours))
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	w.Tasks = append(w.Tasks, task)
	return w
}

func TestIndex_Available_Strict(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	ix := New(0)

	tests := []struct {
		name      string
		busyStart int
		busyHours int
		query     model.TimeRange
		expected  bool
	}{
		{name: "无重叠可用", busyStart: 0, busyHours: 8, query: rangeOn(day, 8, 8), expected: true},
		{name: "一小时重叠不可用", busyStart: 7, busyHours: 2, query: rangeOn(day, 8, 8), expected: false},
		{name: "完全覆盖不可用", busyStart: 8, busyHours: 8, query: rangeOn(day, 10, 2), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := workerWithTask(t, day, tt.busyStart, tt.busyHours)
			if got := ix.Available(w, tt.query, Strict); got != tt.expected {
				t.Errorf("Available(Strict) = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestIndex_Available_Bounded(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	ix := New(4 * time.Hour)

	tests := []struct {
		name      string
		busyStart int
		busyHours int
		query     model.TimeRange
		expected  bool
	}{
		{name: "重叠等于容差仍可用", busyStart: 8, busyHours: 4, query: rangeOn(day, 8, 8), expected: true},
		{name: "重叠超容差不可用", busyStart: 8, busyHours: 5, query: rangeOn(day, 8, 8), expected: false},
		{name: "无重叠可用", busyStart: 0, busyHours: 8, query: rangeOn(day, 12, 4), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := workerWithTask(t, day, tt.busyStart, tt.busyHours)
			if got := ix.Available(w, tt.query, Bounded); got != tt.expected {
				t.Errorf("Available(Bounded) = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestIndex_Bounded_Cumulative(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	ix := New(4 * time.Hour)

	// 两段各 3 小时的占用，单段不超容差，累计超过
	w := workerWithTask(t, day, 8, 3)
	task, err := model.NewTask("第二段", rangeOn(day, 12, 3))
	if err != nil {
		t.Fatal(err)
	}
	w.Tasks = append(w.Tasks, task)

	if ix.Available(w, rangeOn(day, 8, 8), Bounded) {
		t.Error("累计重叠 6 小时应不可用")
	}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		name     string
		st       *model.ShiftType
		expected Policy
	}{
		{name: "半日班宽松", st: &model.ShiftType{Name: "service1", Offset: 8 * time.Hour, Length: 4 * time.Hour}, expected: Bounded},
		{name: "全日班严格", st: &model.ShiftType{Name: "ems", Offset: 8 * time.Hour, Length: 8 * time.Hour}, expected: Strict},
		{name: "夜班严格", st: &model.ShiftType{Name: "service night", Offset: 0, Length: 8 * time.Hour}, expected: Strict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolicyFor(tt.st); got != tt.expected {
				t.Errorf("PolicyFor() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
