// Package model 定义排班求解引擎的核心数据模型
package model

import "time"

// DayPart 半日倾向
type DayPart string

const (
	DayPartNone      DayPart = ""          // 无倾向
	DayPartMorning   DayPart = "morning"   // 偏好上午
	DayPartAfternoon DayPart = "afternoon" // 偏好下午
)

// Policy 人员级排班策略（覆盖公平默认值的人工设定）
type Policy struct {
	// TotalServiceOverride 人员缩写 -> 服务类班次总数的人工指定值
	TotalServiceOverride map[string]int `json:"total_service_override,omitempty"`
	// GroupOverride 人员缩写 -> 班次组名 -> 该组班次数的人工指定值
	GroupOverride map[string]map[string]int `json:"group_override,omitempty"`
	// DayPartPreference 人员缩写 -> 半日倾向
	DayPartPreference map[string]DayPart `json:"day_part_preference,omitempty"`
	// WeekdayBlocked 人员缩写 -> 星期 -> 班次类型名 -> 禁排
	WeekdayBlocked map[string]map[time.Weekday]map[string]bool `json:"weekday_blocked,omitempty"`
}

// NewPolicy 创建空策略
func NewPolicy() *Policy {
	return &Policy{
		TotalServiceOverride: make(map[string]int),
		GroupOverride:        make(map[string]map[string]int),
		DayPartPreference:    make(map[string]DayPart),
		WeekdayBlocked:       make(map[string]map[time.Weekday]map[string]bool),
	}
}

// SetGroupOverride 设定人员在某班次组上的人工班次数
func (p *Policy) SetGroupOverride(abbr, group string, n int) {
	if p.GroupOverride[abbr] == nil {
		p.GroupOverride[abbr] = make(map[string]int)
	}
	p.GroupOverride[abbr][group] = n
}

// GroupCount 查询人员在某班次组上的人工班次数
func (p *Policy) GroupCount(abbr, group string) (int, bool) {
	n, ok := p.GroupOverride[abbr][group]
	return n, ok
}

// BlockWeekday 禁止人员在某星期承担某类型班次
func (p *Policy) BlockWeekday(abbr string, wd time.Weekday, typeName string) {
	if p.WeekdayBlocked[abbr] == nil {
		p.WeekdayBlocked[abbr] = make(map[time.Weekday]map[string]bool)
	}
	if p.WeekdayBlocked[abbr][wd] == nil {
		p.WeekdayBlocked[abbr][wd] = make(map[string]bool)
	}
	p.WeekdayBlocked[abbr][wd][typeName] = true
}

// Blocked 检查人员在某星期是否禁排某类型班次
func (p *Policy) Blocked(abbr string, wd time.Weekday, typeName string) bool {
	return p.WeekdayBlocked[abbr][wd][typeName]
}

// Preference 查询人员的半日倾向
func (p *Policy) Preference(abbr string) DayPart {
	return p.DayPartPreference[abbr]
}
