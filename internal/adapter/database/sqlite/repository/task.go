package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"timely/internal/adapter/database/sqlite"
	"timely/internal/core/domain"
	"timely/internal/core/port"
	tel "timely/internal/core/telemetry"
	"timely/internal/core/util"
)

type TaskRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewTaskRepository(db *sqlite.DB, telemetry port.Telemetry) port.TaskRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (tr *TaskRepository) GetActiveWithCursor(ctx context.Context, userId int, limit int, cursor string) ([]domain.Task, bool, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "GetActiveWithCursor", "task", map[string]interface{}{
		"db.system":         "sqlite",
		"db.table":          "tasks",
		"user.id":           userId,
		"pagination.limit":  limit,
		"pagination.cursor": cursor,
	})
	defer span.End()

	startTime := time.Now()

	actualLimit := limit + 1

	query := tr.db.QueryBuilder.Select("*").
		From("tasks").
		Where(sq.Eq{"user_id": userId}).
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC, id DESC").
		Limit(uint64(actualLimit))

	if cursor != "" {
		datetimeStr, id, err := util.DecodeCursor(cursor)
		if err != nil {
			span.SetStatus("error", err.Error())
			span.RecordError(err)
			return []domain.Task{}, false, err
		}

		datetime, err := time.Parse(time.RFC3339Nano, datetimeStr)
		if err != nil {
			span.SetStatus("error", err.Error())
			span.RecordError(err)
			return []domain.Task{}, false, err
		}

		query = query.Where(sq.Or{
			sq.Lt{"created_at": datetime},
			sq.And{
				sq.Eq{"created_at": datetime},
				sq.Lt{"id": id},
			},
		})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return []domain.Task{}, false, err
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "GetActiveWithCursor", "task", stmt, args)

	rows, err := tr.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		tr.telemetry.RecordRepositoryOperation(ctx, "GetActiveWithCursor", "task", time.Since(startTime), err)
		return []domain.Task{}, false, err
	}
	defer rows.Close()

	var tasks []domain.Task
	if err := tr.scanner.ScanRowsToSlice(rows, &tasks); err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return []domain.Task{}, false, err
	}

	hasNext := len(tasks) == actualLimit
	if hasNext {
		tasks = tasks[:limit]
	}

	span.SetAttributes(map[string]interface{}{
		"db.rows_returned": len(tasks),
		"db.has_next":      hasNext,
	})
	span.SetStatus("ok", "")
	tr.telemetry.RecordRepositoryOperation(ctx, "GetActiveWithCursor", "task", time.Since(startTime), nil)

	return tasks, hasNext, nil
}

func (tr *TaskRepository) GetTrashed(ctx context.Context, userId int) ([]domain.Task, error) {
	query := tr.db.QueryBuilder.Select("*").
		From("tasks").
		Where(sq.Eq{"user_id": userId}).
		Where("deleted_at IS NOT NULL").
		OrderBy("updated_at DESC, id DESC")

	stmt, args, err := query.ToSql()

	if err != nil {
		return nil, err
	}

	rows, err := tr.db.QueryContext(ctx, stmt, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	tasks := []domain.Task{}

	if err := tr.scanner.ScanRowsToSlice(rows, &tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (tr *TaskRepository) GetByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	query := tr.db.QueryBuilder.Select("*").
		From("tasks").
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Limit(1)

	stmt, args, err := query.ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	rows, err := tr.db.QueryContext(ctx, stmt, args...)

	if err != nil {
		return domain.Task{}, err
	}

	defer rows.Close()

	var task domain.Task

	if err := tr.scanner.ScanRowToStruct(rows, &task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}

		return domain.Task{}, err
	}

	return task, nil
}

func (tr *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "Create", "task", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "tasks",
		"db.operation": "INSERT",
		"task.uuid":    task.UUID.String(),
		"user.id":      task.UserId,
	})
	defer span.End()

	startTime := time.Now()
	uid := task.UUID.String()

	var dueDate interface{}
	if task.DueDate != nil {
		dueDate = *task.DueDate
	}

	stmt, args, err := tr.db.QueryBuilder.Insert("tasks").
		Columns("uuid", "title", "details", "due_date", "due_hour", "status", "user_id", "created_at", "updated_at").
		Values(uid, task.Title, task.Details, dueDate, task.DueHour, task.Status, task.UserId, task.CreatedAt, task.UpdatedAt).
		ToSql()

	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return domain.Task{}, err
	}

	tr.telemetry.RecordRepositoryQuery(ctx, "Create", "task", stmt, args)

	if _, err := tr.db.ExecContext(ctx, stmt, args...); err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		tr.telemetry.RecordRepositoryOperation(ctx, "Create", "task", time.Since(startTime), err)
		slog.Error("Insert failed", "error", err, "uuid", uid)
		return domain.Task{}, err
	}

	saved, err := tr.GetByUUID(ctx, task.UserId, uid)
	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return domain.Task{}, err
	}

	tr.telemetry.RecordBusinessEvent(ctx, "created", "task", saved.UUID.String(), saved.UserId, map[string]interface{}{
		"title":  saved.Title,
		"status": saved.StatusOrFallback(),
	})

	span.SetStatus("ok", "")
	tr.telemetry.RecordRepositoryOperation(ctx, "Create", "task", time.Since(startTime), nil)

	return saved, nil
}

func (tr *TaskRepository) UpdateByUUID(ctx context.Context, task domain.Task) (domain.Task, error) {
	stmt, args, err := tr.db.QueryBuilder.Update("tasks").
		SetMap(task.ToMap()).
		Where(sq.Eq{"uuid": task.UUID.String(), "user_id": task.UserId}).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	result, err := tr.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		return domain.Task{}, err
	}

	rowsAffected, _ := result.RowsAffected()

	if rowsAffected == 0 {
		return domain.Task{}, domain.ErrNotFound
	}

	return tr.GetByUUID(ctx, task.UserId, task.UUID.String())
}

// SoftDeleteByUUID only matches active rows, so trashing a task twice
// fails with ErrNotFound.
func (tr *TaskRepository) SoftDeleteByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	ctx, span := tr.telemetry.StartRepositorySpan(ctx, "SoftDeleteByUUID", "task", map[string]interface{}{
		"db.system": "sqlite",
		"db.table":  "tasks",
		"task.uuid": uid,
		"user.id":   userId,
	})
	defer span.End()

	now := time.Now()

	stmt, args, err := tr.db.QueryBuilder.Update("tasks").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		ToSql()

	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return domain.Task{}, err
	}

	result, err := tr.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
		return domain.Task{}, err
	}

	rowsAffected, _ := result.RowsAffected()

	if rowsAffected == 0 {
		span.SetStatus("error", "not found")
		return domain.Task{}, domain.ErrNotFound
	}

	tr.telemetry.RecordBusinessEvent(ctx, "trashed", "task", uid, userId, nil)
	span.SetStatus("ok", "")

	return tr.GetByUUID(ctx, userId, uid)
}

// RestoreByUUID only matches trashed rows.
func (tr *TaskRepository) RestoreByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	stmt, args, err := tr.db.QueryBuilder.Update("tasks").
		Set("deleted_at", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NOT NULL").
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	result, err := tr.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		return domain.Task{}, err
	}

	rowsAffected, _ := result.RowsAffected()

	if rowsAffected == 0 {
		return domain.Task{}, domain.ErrNotFound
	}

	tr.telemetry.RecordBusinessEvent(ctx, "restored", "task", uid, userId, nil)

	return tr.GetByUUID(ctx, userId, uid)
}

// PermanentlyDeleteByUUID refuses to touch active rows: a task must pass
// through the trash before it can be removed for good.
func (tr *TaskRepository) PermanentlyDeleteByUUID(ctx context.Context, userId int, uid string) error {
	stmt, args, err := tr.db.QueryBuilder.Delete("tasks").
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NOT NULL").
		ToSql()

	if err != nil {
		return err
	}

	result, err := tr.db.ExecContext(ctx, stmt, args...)

	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	tr.telemetry.RecordBusinessEvent(ctx, "purged", "task", uid, userId, nil)

	return nil
}
