package model

import (
	"testing"
	"time"
)

func tr(startHour, endHour int) TimeRange {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return TimeRange{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestTimeRange_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a        TimeRange
		b        TimeRange
		expected bool
	}{
		{name: "完全重叠", a: tr(8, 16), b: tr(8, 16), expected: true},
		{name: "部分重叠", a: tr(8, 12), b: tr(10, 14), expected: true},
		{name: "相邻不重叠", a: tr(8, 12), b: tr(12, 16), expected: false},
		{name: "完全分离", a: tr(0, 8), b: tr(12, 16), expected: false},
		{name: "包含关系", a: tr(8, 16), b: tr(10, 12), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", got, tt.expected)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("Overlaps() 反向 = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTimeRange_Overlap(t *testing.T) {
	tests := []struct {
		name     string
		a        TimeRange
		b        TimeRange
		expected time.Duration
	}{
		{name: "完全重叠", a: tr(8, 16), b: tr(8, 16), expected: 8 * time.Hour},
		{name: "部分重叠2小时", a: tr(8, 12), b: tr(10, 14), expected: 2 * time.Hour},
		{name: "相邻为零", a: tr(8, 12), b: tr(12, 16), expected: 0},
		{name: "包含取短者", a: tr(0, 24), b: tr(8, 12), expected: 4 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlap(tt.b); got != tt.expected {
				t.Errorf("Overlap() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestDatesBetween(t *testing.T) {
	start := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	dates := DatesBetween(start, end)
	expected := []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02"}

	if len(dates) != len(expected) {
		t.Fatalf("DatesBetween() 返回 %d 天, expected %d", len(dates), len(expected))
	}
	for i, d := range expected {
		if dates[i] != d {
			t.Errorf("dates[%d] = %s, expected %s", i, dates[i], d)
		}
	}
}

func TestNewBaseModel(t *testing.T) {
	base := NewBaseModel()

	if base.ID.String() == "" {
		t.Error("ID should not be empty")
	}
	if base.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
	if base.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should not be zero")
	}
}
