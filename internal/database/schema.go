package database

import (
	"context"
	"fmt"
)

// schemaStatements 按依赖顺序的建表语句
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS workers (
		id UUID PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		abbreviation TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS shift_types (
		name TEXT PRIMARY KEY,
		offset_minutes INT NOT NULL,
		length_minutes INT NOT NULL,
		min_needed INT NOT NULL DEFAULT 1,
		max_needed INT NOT NULL DEFAULT 1,
		role TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_shifts (
		id UUID PRIMARY KEY,
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		shift_date DATE NOT NULL,
		type_name TEXT NOT NULL REFERENCES shift_types(name),
		UNIQUE (schedule_id, shift_date, type_name)
	)`,
	`CREATE TABLE IF NOT EXISTS pins (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		shift_date DATE NOT NULL,
		type_name TEXT NOT NULL,
		worker_abbr TEXT NOT NULL,
		PRIMARY KEY (schedule_id, shift_date, type_name, worker_abbr)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY,
		worker_abbr TEXT NOT NULL,
		name TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS holidays (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		holiday_date DATE NOT NULL,
		PRIMARY KEY (schedule_id, holiday_date)
	)`,
	`CREATE TABLE IF NOT EXISTS group_overrides (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		worker_abbr TEXT NOT NULL,
		group_name TEXT NOT NULL,
		shift_count INT NOT NULL,
		PRIMARY KEY (schedule_id, worker_abbr, group_name)
	)`,
	`CREATE TABLE IF NOT EXISTS total_service_overrides (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		worker_abbr TEXT NOT NULL,
		shift_count INT NOT NULL,
		PRIMARY KEY (schedule_id, worker_abbr)
	)`,
	`CREATE TABLE IF NOT EXISTS day_part_preferences (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		worker_abbr TEXT NOT NULL,
		day_part TEXT NOT NULL,
		PRIMARY KEY (schedule_id, worker_abbr)
	)`,
	`CREATE TABLE IF NOT EXISTS weekday_blocks (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		worker_abbr TEXT NOT NULL,
		weekday INT NOT NULL,
		type_name TEXT NOT NULL,
		PRIMARY KEY (schedule_id, worker_abbr, weekday, type_name)
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		shift_date DATE NOT NULL,
		type_name TEXT NOT NULL,
		worker_abbr TEXT NOT NULL,
		pinned BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (schedule_id, shift_date, type_name, worker_abbr)
	)`,
	`CREATE TABLE IF NOT EXISTS run_log (
		schedule_id UUID NOT NULL REFERENCES schedules(id),
		seq INT NOT NULL,
		stage TEXT NOT NULL,
		group_key TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (schedule_id, seq)
	)`,
}

// Migrate 创建缺失的数据表
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("建表失败: %w", err)
		}
	}
	return nil
}
