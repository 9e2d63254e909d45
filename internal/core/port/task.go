package port

import (
	"context"

	"timely/internal/core/domain"
	"timely/internal/core/model/request"
	"timely/internal/core/model/response"
)

// TaskRepository scopes every query and mutation by the owning user id.
// State transitions are enforced in SQL: soft delete only hits active rows,
// restore and permanent delete only hit trashed rows.
type TaskRepository interface {
	GetActiveWithCursor(ctx context.Context, userId int, limit int, cursor string) ([]domain.Task, bool, error)
	GetTrashed(ctx context.Context, userId int) ([]domain.Task, error)
	GetByUUID(ctx context.Context, userId int, uid string) (domain.Task, error)
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateByUUID(ctx context.Context, task domain.Task) (domain.Task, error)
	SoftDeleteByUUID(ctx context.Context, userId int, uid string) (domain.Task, error)
	RestoreByUUID(ctx context.Context, userId int, uid string) (domain.Task, error)
	PermanentlyDeleteByUUID(ctx context.Context, userId int, uid string) error
}

type TaskService interface {
	GetTasksWithPagination(ctx context.Context, userId int, limit int, cursor string) (*response.CursorResponse, error)
	GetTrashed(ctx context.Context, userId int) ([]domain.Task, error)
	Create(ctx context.Context, userId int, req *request.TaskRequest) (domain.Task, error)
	Update(ctx context.Context, userId int, uid string, req *request.TaskUpdateRequest) (domain.Task, error)
	SoftDelete(ctx context.Context, userId int, uid string) (domain.Task, error)
	Restore(ctx context.Context, userId int, uid string) (domain.Task, error)
	PermanentlyDelete(ctx context.Context, userId int, uid string) error
}
