// Package model 定义排班求解引擎的核心数据模型
package model

import (
	"time"

	"github.com/spatipan/shift-scheduler/pkg/errors"
)

// Schedule 一次排班的全部输入与结果
type Schedule struct {
	BaseModel
	Title    string          `json:"title" db:"title"`
	Start    time.Time       `json:"start" db:"start_date"` // 闭区间起始日
	End      time.Time       `json:"end" db:"end_date"`     // 闭区间结束日
	Workers  []*Worker       `json:"workers"`
	Shifts   []*Shift        `json:"shifts"`
	Tasks    []*Task         `json:"tasks"`
	Holidays map[string]bool `json:"holidays"`
	Policy   *Policy         `json:"policy"`

	workersByAbbr map[string]*Worker
	shiftsByDate  map[string][]*Shift
}

// NewSchedule 创建排班，日期范围必须有效
func NewSchedule(title string, start, end time.Time) (*Schedule, error) {
	if !start.Before(end) {
		return nil, errors.InvalidTimeRange("排班开始日期必须早于结束日期")
	}
	return &Schedule{
		BaseModel:     NewBaseModel(),
		Title:         title,
		Start:         start,
		End:           end,
		Holidays:      make(map[string]bool),
		Policy:        NewPolicy(),
		workersByAbbr: make(map[string]*Worker),
		shiftsByDate:  make(map[string][]*Shift),
	}, nil
}

// AddWorker 添加人员，缩写必须唯一
func (s *Schedule) AddWorker(w *Worker) error {
	if w.Abbreviation == "" {
		return errors.InvalidInput("abbreviation", "不能为空")
	}
	if _, ok := s.workersByAbbr[w.Abbreviation]; ok {
		return errors.AlreadyExists("人员", w.Abbreviation)
	}
	s.Workers = append(s.Workers, w)
	s.workersByAbbr[w.Abbreviation] = w
	return nil
}

// AddShift 添加班次，必须落在排班日期范围内
func (s *Schedule) AddShift(sh *Shift) error {
	date := sh.Date()
	if date < s.Start.Format(DateFormat) || date > s.End.Format(DateFormat) {
		return errors.OutOfRange(sh.Type.Name, date)
	}
	s.Shifts = append(s.Shifts, sh)
	s.shiftsByDate[date] = append(s.shiftsByDate[date], sh)
	return nil
}

// AddTask 为人员添加占用任务
func (s *Schedule) AddTask(abbr string, t *Task) error {
	w, err := s.WorkerByAbbr(abbr)
	if err != nil {
		return err
	}
	s.Tasks = append(s.Tasks, t)
	w.Tasks = append(w.Tasks, t)
	return nil
}

// Assign 将人员分配到班次（双向追加）
func (s *Schedule) Assign(sh *Shift, w *Worker) error {
	if _, ok := s.workersByAbbr[w.Abbreviation]; !ok {
		return errors.NotFound("人员", w.Abbreviation)
	}
	if sh.HasWorker(w.Abbreviation) {
		return errors.AlreadyAssigned(w.Abbreviation, sh.Key())
	}
	if sh.Full() {
		return errors.CapacityExceeded(sh.Key(), sh.Type.MaxNeeded)
	}
	sh.Workers = append(sh.Workers, w)
	w.Shifts = append(w.Shifts, sh)
	return nil
}

// Pin 钉定分配：与 Assign 相同的变更，并标记为钉定。
// 重复钉定同一对人员与班次是幂等的。
func (s *Schedule) Pin(date, typeName, abbr string) error {
	sh, err := s.ShiftOn(date, typeName)
	if err != nil {
		return err
	}
	w, err := s.WorkerByAbbr(abbr)
	if err != nil {
		return err
	}
	if sh.IsPinned(abbr) && sh.HasWorker(abbr) {
		return nil
	}
	if err := s.Assign(sh, w); err != nil {
		return err
	}
	sh.Pins[abbr] = true
	return nil
}

// WorkerByAbbr 按缩写查找人员
func (s *Schedule) WorkerByAbbr(abbr string) (*Worker, error) {
	w, ok := s.workersByAbbr[abbr]
	if !ok {
		return nil, errors.NotFound("人员", abbr)
	}
	return w, nil
}

// ShiftsOn 返回指定日期的全部班次
func (s *Schedule) ShiftsOn(date string) []*Shift {
	return s.shiftsByDate[date]
}

// ShiftOn 按日期和类型名查找班次
func (s *Schedule) ShiftOn(date, typeName string) (*Shift, error) {
	for _, sh := range s.shiftsByDate[date] {
		if sh.Type.Name == typeName {
			return sh, nil
		}
	}
	return nil, errors.NotFound("班次", date+"/"+typeName)
}

// Dates 返回排班范围内的全部日期
func (s *Schedule) Dates() []string {
	return DatesBetween(s.Start, s.End)
}

// Days 返回排班天数
func (s *Schedule) Days() int {
	return len(s.Dates())
}

// MarkHoliday 标记假日
func (s *Schedule) MarkHoliday(date string) {
	s.Holidays[date] = true
}

// IsHoliday 检查日期是否为假日
func (s *Schedule) IsHoliday(date string) bool {
	return s.Holidays[date]
}
