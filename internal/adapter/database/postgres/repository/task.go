package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"timely/internal/adapter/database/postgres"
	"timely/internal/core/domain"
	"timely/internal/core/port"
	"timely/internal/core/util"
	"timely/pkg/tracing"
)

const taskColumns = "id, uuid, title, details, due_date, due_hour, status, user_id, created_at, updated_at, deleted_at"

type TaskRepository struct {
	db *postgres.DB
}

func NewTaskRepository(db *postgres.DB) port.TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var task domain.Task

	err := row.Scan(
		&task.ID,
		&task.UUID,
		&task.Title,
		&task.Details,
		&task.DueDate,
		&task.DueHour,
		&task.Status,
		&task.UserId,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DeletedAt,
	)

	return task, err
}

func (tr *TaskRepository) collectTasks(ctx context.Context, stmt string, args []interface{}) ([]domain.Task, error) {
	rows, err := tr.db.Query(ctx, stmt, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	tasks := []domain.Task{}

	for rows.Next() {
		task, err := scanTask(rows)

		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func (tr *TaskRepository) GetActiveWithCursor(ctx context.Context, userId int, limit int, cursor string) ([]domain.Task, bool, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "db.task.GetActiveWithCursor", []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.table", "tasks"),
		attribute.Int("user.id", userId),
		attribute.Int("pagination.limit", limit),
	})

	defer span.End()

	actualLimit := limit + 1

	query := tr.db.QueryBuilder.Select(taskColumns).
		From("tasks").
		Where(sq.Eq{"user_id": userId}).
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC, id DESC").
		Limit(uint64(actualLimit))

	if cursor != "" {
		datetimeStr, id, err := util.DecodeCursor(cursor)

		if err != nil {
			tracing.AddSpanError(span, err)
			return []domain.Task{}, false, err
		}

		datetime, err := time.Parse(time.RFC3339Nano, datetimeStr)

		if err != nil {
			tracing.AddSpanError(span, err)
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
		tracing.AddSpanError(span, err)
		return []domain.Task{}, false, err
	}

	tasks, err := tr.collectTasks(ctx, stmt, args)

	if err != nil {
		tracing.AddSpanError(span, err)
		return []domain.Task{}, false, err
	}

	hasNext := len(tasks) == actualLimit

	if hasNext {
		tasks = tasks[:limit]
	}

	span.SetAttributes(
		attribute.Int("db.rows_returned", len(tasks)),
		attribute.Bool("db.has_next", hasNext),
	)

	return tasks, hasNext, nil
}

func (tr *TaskRepository) GetTrashed(ctx context.Context, userId int) ([]domain.Task, error) {
	stmt, args, err := tr.db.QueryBuilder.Select(taskColumns).
		From("tasks").
		Where(sq.Eq{"user_id": userId}).
		Where("deleted_at IS NOT NULL").
		OrderBy("updated_at DESC, id DESC").
		ToSql()

	if err != nil {
		return nil, err
	}

	return tr.collectTasks(ctx, stmt, args)
}

func (tr *TaskRepository) GetByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	stmt, args, err := tr.db.QueryBuilder.Select(taskColumns).
		From("tasks").
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(tr.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}

		return domain.Task{}, err
	}

	return task, nil
}

func (tr *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	ctx, span := tracing.CreateChildSpan(ctx, "db.task.Create", []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.table", "tasks"),
		attribute.String("task.uuid", task.UUID.String()),
		attribute.Int("user.id", task.UserId),
	})

	defer span.End()

	stmt, args, err := tr.db.QueryBuilder.Insert("tasks").
		Columns("uuid", "title", "details", "due_date", "due_hour", "status", "user_id", "created_at", "updated_at").
		Values(task.UUID, task.Title, task.Details, task.DueDate, task.DueHour, task.Status, task.UserId, task.CreatedAt, task.UpdatedAt).
		Suffix("RETURNING " + taskColumns).
		ToSql()

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.Task{}, err
	}

	saved, err := scanTask(tr.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		tracing.AddSpanError(span, err)
		return domain.Task{}, err
	}

	return saved, nil
}

func (tr *TaskRepository) UpdateByUUID(ctx context.Context, task domain.Task) (domain.Task, error) {
	stmt, args, err := tr.db.QueryBuilder.Update("tasks").
		SetMap(task.ToMap()).
		Where(sq.Eq{"uuid": task.UUID.String(), "user_id": task.UserId}).
		Suffix("RETURNING " + taskColumns).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	saved, err := scanTask(tr.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}

		return domain.Task{}, err
	}

	return saved, nil
}

// SoftDeleteByUUID only matches active rows, so trashing a task twice
// fails with ErrNotFound.
func (tr *TaskRepository) SoftDeleteByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	now := time.Now()

	stmt, args, err := tr.db.QueryBuilder.Update("tasks").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING " + taskColumns).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(tr.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}

		return domain.Task{}, err
	}

	return task, nil
}

// RestoreByUUID only matches trashed rows.
func (tr *TaskRepository) RestoreByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	stmt, args, err := tr.db.QueryBuilder.Update("tasks").
		Set("deleted_at", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NOT NULL").
		Suffix("RETURNING " + taskColumns).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(tr.db.QueryRow(ctx, stmt, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}

		return domain.Task{}, err
	}

	return task, nil
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

	tag, err := tr.db.Exec(ctx, stmt, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
