// Package catalog 把排班规则编译为可分组提交的约束组
package catalog

import (
	"time"

	"github.com/spatipan/shift-scheduler/pkg/model"
)

// FairnessRule 班次组的公平性规则。
// 人均班次数取组内各类型人均数之和向下取整，
// 允许的人员班次数区间为 [floor(avg)+DeltaMin, floor(avg)+DeltaMax]。
type FairnessRule struct {
	Name     string
	Types    []string
	DeltaMin int
	DeltaMax int
	NoMin    bool // 只限上界（夜班）
}

// Covers 检查类型是否属于该组
func (r FairnessRule) Covers(typeName string) bool {
	for _, t := range r.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

// Tables 约束目录使用的策略表
type Tables struct {
	Types        []*model.ShiftType
	Incompatible [][2]string // 同日互斥的类型对（对称）
	Fairness     []FairnessRule
	Pairs        [][2]string // 倾向同日搭配的半日班对
	ExemptDaily  []string    // 不计入每日单班目标的类型
	DailyCap     int         // 每人每日班次上限
}

// IsIncompatible 检查两个类型是否同日互斥
func (t *Tables) IsIncompatible(a, b string) bool {
	for _, p := range t.Incompatible {
		if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
			return true
		}
	}
	return false
}

// IsExemptDaily 检查类型是否豁免每日单班目标
func (t *Tables) IsExemptDaily(typeName string) bool {
	for _, n := range t.ExemptDaily {
		if n == typeName {
			return true
		}
	}
	return false
}

// Default 返回急诊科排班的既定策略表
func Default() *Tables {
	return &Tables{
		Types: []*model.ShiftType{
			{Name: "service night", Offset: 0, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "service1", Offset: 8 * time.Hour, Length: 4 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "service1+", Offset: 8 * time.Hour, Length: 4 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "service2", Offset: 12 * time.Hour, Length: 4 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "service2+", Offset: 12 * time.Hour, Length: 4 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "mc", Offset: 8 * time.Hour, Length: 4 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "observe", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "ems", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "amd", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
			{Name: "avd", Offset: 8 * time.Hour, Length: 8 * time.Hour, MinNeeded: 1, MaxNeeded: 1},
		},
		Incompatible: [][2]string{
			{"service night", "service1"},
			{"service night", "service2"},
			{"service night", "service1+"},
			{"service night", "service2+"},
			{"service night", "mc"},
			{"service night", "ems"},
			{"service night", "observe"},
			{"service night", "amd"},
			{"service night", "avd"},
			{"service1", "service1+"},
			{"service1", "mc"},
			{"service1", "observe"},
			{"service1", "ems"},
			{"service1", "amd"},
			{"service1", "avd"},
			{"service1+", "mc"},
			{"service1+", "avd"},
			{"service2", "service2+"},
			{"service2", "mc"},
			{"service2", "ems"},
			{"service2", "observe"},
			{"service2", "amd"},
			{"service2", "avd"},
			{"service2+", "avd"},
			{"mc", "avd"},
			{"observe", "avd"},
			{"ems", "avd"},
			{"amd", "avd"},
		},
		Fairness: []FairnessRule{
			{Name: "service night", Types: []string{"service night"}, NoMin: true, DeltaMax: 4},
			{Name: "services", Types: []string{"service1", "service2", "service1+", "service2+"}, DeltaMin: -1, DeltaMax: 1},
			{Name: "mc", Types: []string{"mc"}, DeltaMin: 0, DeltaMax: 1},
			{Name: "amd", Types: []string{"amd"}, DeltaMin: 0, DeltaMax: 1},
			{Name: "avd", Types: []string{"avd"}, DeltaMin: 0, DeltaMax: 1},
		},
		Pairs: [][2]string{
			{"service1", "service2"},
			{"service1+", "service2+"},
		},
		ExemptDaily: []string{"service1", "service2", "service1+", "service2+"},
		DailyCap:    2,
	}
}
