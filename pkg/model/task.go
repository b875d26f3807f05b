// Package model 定义排班求解引擎的核心数据模型
package model

import (
	"github.com/spatipan/shift-scheduler/pkg/errors"
)

// Task 人员的非班次占用（会议、门诊、请假等）
type Task struct {
	BaseModel
	TimeRange
	Name string `json:"name" db:"name"`
}

// NewTask 创建任务，时长必须为正
func NewTask(name string, tr TimeRange) (*Task, error) {
	if !tr.End.After(tr.Start) {
		return nil, errors.InvalidTimeRange("任务结束时间必须晚于开始时间")
	}
	return &Task{
		BaseModel: NewBaseModel(),
		TimeRange: tr,
		Name:      name,
	}, nil
}
