// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spatipan/shift-scheduler/pkg/model"
)

// WorkerRepository 人员仓储
type WorkerRepository struct {
	db DB
}

// NewWorkerRepository 创建人员仓储
func NewWorkerRepository(db DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// Create 创建人员
func (r *WorkerRepository) Create(ctx context.Context, w *model.Worker) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	query := `
		INSERT INTO workers (
			id, first_name, last_name, abbreviation, role, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		w.ID, w.FirstName, w.LastName, w.Abbreviation, w.Role, w.Active, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建人员失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取人员
func (r *WorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	query := `
		SELECT id, first_name, last_name, abbreviation, role, active, created_at, updated_at
		FROM workers
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanWorker(r.db.QueryRowContext(ctx, query, id))
}

// GetByAbbreviation 根据缩写获取人员
func (r *WorkerRepository) GetByAbbreviation(ctx context.Context, abbr string) (*model.Worker, error) {
	query := `
		SELECT id, first_name, last_name, abbreviation, role, active, created_at, updated_at
		FROM workers
		WHERE abbreviation = $1 AND deleted_at IS NULL
	`

	return r.scanWorker(r.db.QueryRowContext(ctx, query, abbr))
}

// Update 更新人员
func (r *WorkerRepository) Update(ctx context.Context, w *model.Worker) error {
	w.UpdatedAt = time.Now()

	query := `
		UPDATE workers SET
			first_name = $2, last_name = $3, abbreviation = $4, role = $5, active = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		w.ID, w.FirstName, w.LastName, w.Abbreviation, w.Role, w.Active, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新人员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return nil
}

// Delete 软删除人员
func (r *WorkerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE workers SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除人员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return nil
}

// List 查询人员列表
func (r *WorkerRepository) List(ctx context.Context, filter ListFilter) ([]*model.Worker, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", argIndex))
		args = append(args, *filter.Active)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR abbreviation ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM workers WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, first_name, last_name, abbreviation, role, active, created_at, updated_at
		FROM workers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var workers []*model.Worker
	for rows.Next() {
		w, err := r.scanWorker(rows)
		if err != nil {
			return nil, 0, err
		}
		workers = append(workers, w)
	}

	return workers, total, nil
}

// ListActive 获取所有在岗人员
func (r *WorkerRepository) ListActive(ctx context.Context) ([]*model.Worker, error) {
	filter := DefaultListFilter().WithActive(true).WithLimit(10000)
	workers, _, err := r.List(ctx, filter)
	return workers, err
}

// LoadTasks 装载人员在指定时间范围内的任务占用
func (r *WorkerRepository) LoadTasks(ctx context.Context, w *model.Worker, start, end time.Time) error {
	query := `
		SELECT id, name, start_time, end_time
		FROM tasks
		WHERE worker_abbr = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, w.Abbreviation, start, end)
	if err != nil {
		return fmt.Errorf("查询任务失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.ID, &task.Name, &task.Start, &task.End); err != nil {
			return fmt.Errorf("扫描任务数据失败: %w", err)
		}
		w.Tasks = append(w.Tasks, task)
	}

	return nil
}

// scanWorker 扫描一行人员数据，单行查询无结果时返回 nil
func (r *WorkerRepository) scanWorker(s Scanner) (*model.Worker, error) {
	w := &model.Worker{}

	err := s.Scan(
		&w.ID, &w.FirstName, &w.LastName, &w.Abbreviation, &w.Role, &w.Active, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描人员数据失败: %w", err)
	}

	return w, nil
}
