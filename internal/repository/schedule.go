// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spatipan/shift-scheduler/pkg/model"
)

// ScheduleRepository 排班仓储。
// 负责把排班的全部求解输入从数据库装配为内存模型，
// 并把求解结果（分配表与运行日志）写回。
type ScheduleRepository struct {
	db      TxDB
	workers *WorkerRepository
}

// NewScheduleRepository 创建排班仓储
func NewScheduleRepository(db TxDB, workers *WorkerRepository) *ScheduleRepository {
	return &ScheduleRepository{db: db, workers: workers}
}

// Create 创建排班及其班次
func (r *ScheduleRepository) Create(ctx context.Context, sched *model.Schedule) error {
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
	}
	now := time.Now()
	sched.CreatedAt = now
	sched.UpdatedAt = now

	query := `
		INSERT INTO schedules (id, title, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		sched.ID, sched.Title, sched.Start, sched.End, sched.CreatedAt, sched.UpdatedAt,
	); err != nil {
		return fmt.Errorf("创建排班失败: %w", err)
	}

	for _, sh := range sched.Shifts {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO schedule_shifts (id, schedule_id, shift_date, type_name) VALUES ($1, $2, $3, $4)`,
			sh.ID, sched.ID, sh.Date(), sh.Type.Name,
		); err != nil {
			return fmt.Errorf("创建班次失败: %w", err)
		}
	}

	for date := range sched.Holidays {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO holidays (schedule_id, holiday_date) VALUES ($1, $2)`,
			sched.ID, date,
		); err != nil {
			return fmt.Errorf("写入假日失败: %w", err)
		}
	}

	return nil
}

// Load 装配排班的完整求解输入。
// 包含人员名册、班次网格、钉定、任务占用、假日与人员策略。
func (r *ScheduleRepository) Load(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	var title string
	var start, end time.Time
	var createdAt, updatedAt time.Time

	err := r.db.QueryRowContext(ctx,
		`SELECT title, start_date, end_date, created_at, updated_at FROM schedules WHERE id = $1`,
		id,
	).Scan(&title, &start, &end, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询排班失败: %w", err)
	}

	sched, err := model.NewSchedule(title, start, end)
	if err != nil {
		return nil, err
	}
	sched.ID = id
	sched.CreatedAt = createdAt
	sched.UpdatedAt = updatedAt

	// 只有在岗人员进入名册
	workers, err := r.workers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workers {
		if err := sched.AddWorker(w); err != nil {
			return nil, err
		}
		if err := r.workers.LoadTasks(ctx, w, start, end.AddDate(0, 0, 1)); err != nil {
			return nil, err
		}
	}

	types, err := r.LoadShiftTypes(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.loadShifts(ctx, sched, types); err != nil {
		return nil, err
	}
	if err := r.loadHolidays(ctx, sched); err != nil {
		return nil, err
	}
	if err := r.loadPolicy(ctx, sched); err != nil {
		return nil, err
	}
	if err := r.loadPins(ctx, sched); err != nil {
		return nil, err
	}

	return sched, nil
}

// LoadShiftTypes 装载全部班次类型定义
func (r *ScheduleRepository) LoadShiftTypes(ctx context.Context) (map[string]*model.ShiftType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, offset_minutes, length_minutes, min_needed, max_needed, role FROM shift_types`,
	)
	if err != nil {
		return nil, fmt.Errorf("查询班次类型失败: %w", err)
	}
	defer rows.Close()

	types := make(map[string]*model.ShiftType)
	for rows.Next() {
		var offsetMin, lengthMin int
		st := &model.ShiftType{}
		if err := rows.Scan(&st.Name, &offsetMin, &lengthMin, &st.MinNeeded, &st.MaxNeeded, &st.Role); err != nil {
			return nil, fmt.Errorf("扫描班次类型失败: %w", err)
		}
		st.Offset = time.Duration(offsetMin) * time.Minute
		st.Length = time.Duration(lengthMin) * time.Minute
		types[st.Name] = st
	}
	return types, nil
}

// loadShifts 装载班次网格
func (r *ScheduleRepository) loadShifts(ctx context.Context, sched *model.Schedule, types map[string]*model.ShiftType) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shift_date, type_name FROM schedule_shifts WHERE schedule_id = $1 ORDER BY shift_date, type_name`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var shiftID uuid.UUID
		var day time.Time
		var typeName string
		if err := rows.Scan(&shiftID, &day, &typeName); err != nil {
			return fmt.Errorf("扫描班次失败: %w", err)
		}
		st, ok := types[typeName]
		if !ok {
			return fmt.Errorf("班次类型 %s 未定义", typeName)
		}
		sh := model.NewShift(st, day)
		sh.ID = shiftID
		if err := sched.AddShift(sh); err != nil {
			return err
		}
	}
	return nil
}

// loadHolidays 装载假日
func (r *ScheduleRepository) loadHolidays(ctx context.Context, sched *model.Schedule) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT holiday_date FROM holidays WHERE schedule_id = $1`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询假日失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return fmt.Errorf("扫描假日失败: %w", err)
		}
		sched.MarkHoliday(day.Format(model.DateFormat))
	}
	return nil
}

// loadPolicy 装载人员级策略表
func (r *ScheduleRepository) loadPolicy(ctx context.Context, sched *model.Schedule) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT worker_abbr, group_name, shift_count FROM group_overrides WHERE schedule_id = $1`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询班次组指定失败: %w", err)
	}
	for rows.Next() {
		var abbr, group string
		var count int
		if err := rows.Scan(&abbr, &group, &count); err != nil {
			rows.Close()
			return fmt.Errorf("扫描班次组指定失败: %w", err)
		}
		sched.Policy.SetGroupOverride(abbr, group, count)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT worker_abbr, shift_count FROM total_service_overrides WHERE schedule_id = $1`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询服务总数指定失败: %w", err)
	}
	for rows.Next() {
		var abbr string
		var count int
		if err := rows.Scan(&abbr, &count); err != nil {
			rows.Close()
			return fmt.Errorf("扫描服务总数指定失败: %w", err)
		}
		sched.Policy.TotalServiceOverride[abbr] = count
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT worker_abbr, day_part FROM day_part_preferences WHERE schedule_id = $1`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询半日倾向失败: %w", err)
	}
	for rows.Next() {
		var abbr, part string
		if err := rows.Scan(&abbr, &part); err != nil {
			rows.Close()
			return fmt.Errorf("扫描半日倾向失败: %w", err)
		}
		sched.Policy.DayPartPreference[abbr] = model.DayPart(part)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT worker_abbr, weekday, type_name FROM weekday_blocks WHERE schedule_id = $1`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询禁排表失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var abbr, typeName string
		var weekday int
		if err := rows.Scan(&abbr, &weekday, &typeName); err != nil {
			return fmt.Errorf("扫描禁排表失败: %w", err)
		}
		sched.Policy.BlockWeekday(abbr, time.Weekday(weekday), typeName)
	}
	return nil
}

// loadPins 装载并重放钉定分配
func (r *ScheduleRepository) loadPins(ctx context.Context, sched *model.Schedule) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT shift_date, type_name, worker_abbr FROM pins WHERE schedule_id = $1`,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("查询钉定失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var typeName, abbr string
		if err := rows.Scan(&day, &typeName, &abbr); err != nil {
			return fmt.Errorf("扫描钉定失败: %w", err)
		}
		if err := sched.Pin(day.Format(model.DateFormat), typeName, abbr); err != nil {
			return fmt.Errorf("重放钉定 %s/%s/%s 失败: %w", day.Format(model.DateFormat), typeName, abbr, err)
		}
	}
	return nil
}

// RunEntry 待持久化的运行日志条目
type RunEntry struct {
	Stage   string
	Key     string
	Outcome string
	Reason  string
}

// SaveResult 写回求解结果：在单个事务内覆盖分配表与运行日志
func (r *ScheduleRepository) SaveResult(ctx context.Context, sched *model.Schedule, entries []RunEntry) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return writeResult(ctx, tx, sched, entries)
	})
}

// writeResult 在给定执行器上清除旧结果并写入分配表与运行日志
func writeResult(ctx context.Context, tx DB, sched *model.Schedule, entries []RunEntry) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assignments WHERE schedule_id = $1`, sched.ID,
	); err != nil {
		return fmt.Errorf("清除旧分配失败: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM run_log WHERE schedule_id = $1`, sched.ID,
	); err != nil {
		return fmt.Errorf("清除旧运行日志失败: %w", err)
	}

	now := time.Now()
	for _, sh := range sched.Shifts {
		for _, w := range sh.Workers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assignments (schedule_id, shift_date, type_name, worker_abbr, pinned, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				sched.ID, sh.Date(), sh.Type.Name, w.Abbreviation, sh.IsPinned(w.Abbreviation), now,
			); err != nil {
				return fmt.Errorf("写入分配失败: %w", err)
			}
		}
	}

	for i, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_log (schedule_id, seq, stage, group_key, outcome, reason, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sched.ID, i, e.Stage, e.Key, e.Outcome, e.Reason, now,
		); err != nil {
			return fmt.Errorf("写入运行日志失败: %w", err)
		}
	}

	return nil
}
