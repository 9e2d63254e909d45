package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"timely/internal/core/domain"
	"timely/internal/core/model/request"
	"timely/internal/core/model/response"
	"timely/internal/core/port"
	tel "timely/internal/core/telemetry"
	"timely/internal/core/util"
)

const dateLayout = "2006-01-02"

type TaskService struct {
	repo      port.TaskRepository
	telemetry port.Telemetry
}

func NewTaskService(repo port.TaskRepository, telemetry port.Telemetry) *TaskService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskService{repo: repo, telemetry: telemetry}
}

func (ts *TaskService) GetTasksWithPagination(ctx context.Context, userId int, limit int, cursor string) (*response.CursorResponse, error) {
	rows, hasNext, err := ts.repo.GetActiveWithCursor(ctx, userId, limit, cursor)

	data := make([]response.TaskResponse, 0)

	if err != nil {
		dataBytes, _ := util.Serialize(data)

		resp := response.CursorResponse{
			Size: 0,
			Data: dataBytes,
		}

		return &resp, err
	}

	for _, task := range rows {
		data = append(data, ToTaskResponse(task))
	}

	var nextCursor string

	if hasNext && len(rows) > 0 {
		lastTask := rows[len(rows)-1]
		nextCursor = util.EncodeCursor(lastTask.CreatedAt.Format(time.RFC3339Nano), lastTask.ID)
	}

	dataBytes, _ := util.Serialize(data)

	responsable := response.CursorResponse{
		Size: len(data),
		Data: dataBytes,
		Pagination: struct {
			HasNext    bool   `json:"has_next"`
			NextCursor string `json:"next_cursor"`
		}{
			HasNext:    hasNext,
			NextCursor: nextCursor,
		},
	}

	return &responsable, nil
}

func (ts *TaskService) GetTrashed(ctx context.Context, userId int) ([]domain.Task, error) {
	return ts.repo.GetTrashed(ctx, userId)
}

func (ts *TaskService) Create(ctx context.Context, userId int, req *request.TaskRequest) (domain.Task, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "task", "Create", userId, nil)
	defer span.End()

	now := time.Now()

	task := domain.Task{
		UUID:      uuid.New(),
		Title:     req.Title,
		Details:   req.Details,
		DueHour:   req.Hour,
		UserId:    userId,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := validateTitle(req.Title); err != nil {
		return domain.Task{}, err
	}

	if err := validateDetails(req.Details); err != nil {
		return domain.Task{}, err
	}

	status, err := domain.StatusToEnum(req.Status)

	if err != nil {
		return domain.Task{}, domain.NewValidationError("status", err.Error())
	}

	task.Status = status

	dueDate, err := parseDueDate(req.Date, now)

	if err != nil {
		return domain.Task{}, err
	}

	task.DueDate = dueDate

	if err := domain.ValidateDueHour(req.Hour); err != nil {
		return domain.Task{}, domain.NewValidationError("hour", err.Error())
	}

	saved, err := ts.repo.Create(ctx, task)

	if err != nil {
		span.RecordError(err)
		return domain.Task{}, err
	}

	return saved, nil
}

// Update merges only the fields present in the request, validates the
// result and writes it back. Works on active and trashed tasks alike and
// never touches the trash flag.
func (ts *TaskService) Update(ctx context.Context, userId int, uid string, req *request.TaskUpdateRequest) (domain.Task, error) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, "task", "Update", userId, map[string]interface{}{
		"task.uuid": uid,
	})
	defer span.End()

	task, err := ts.repo.GetByUUID(ctx, userId, uid)

	if err != nil {
		return domain.Task{}, err
	}

	now := time.Now()

	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return domain.Task{}, err
		}

		task.Title = *req.Title
	}

	if req.Details != nil {
		if err := validateDetails(*req.Details); err != nil {
			return domain.Task{}, err
		}

		task.Details = *req.Details
	}

	if req.Date != nil {
		dueDate, err := parseDueDate(*req.Date, now)

		if err != nil {
			return domain.Task{}, err
		}

		task.DueDate = dueDate
	}

	if req.Hour != nil {
		if err := domain.ValidateDueHour(*req.Hour); err != nil {
			return domain.Task{}, domain.NewValidationError("hour", err.Error())
		}

		task.DueHour = *req.Hour
	}

	if req.Status != nil {
		status, err := domain.StatusToEnum(*req.Status)

		if err != nil {
			return domain.Task{}, domain.NewValidationError("status", err.Error())
		}

		task.Status = status
	}

	task.UpdatedAt = now

	updated, err := ts.repo.UpdateByUUID(ctx, task)

	if err != nil {
		span.RecordError(err)
		return domain.Task{}, err
	}

	return updated, nil
}

func (ts *TaskService) SoftDelete(ctx context.Context, userId int, uid string) (domain.Task, error) {
	return ts.repo.SoftDeleteByUUID(ctx, userId, uid)
}

func (ts *TaskService) Restore(ctx context.Context, userId int, uid string) (domain.Task, error) {
	return ts.repo.RestoreByUUID(ctx, userId, uid)
}

func (ts *TaskService) PermanentlyDelete(ctx context.Context, userId int, uid string) error {
	return ts.repo.PermanentlyDeleteByUUID(ctx, userId, uid)
}

func validateTitle(title string) error {
	if title == "" {
		return domain.NewValidationError("title", "is required")
	}

	if len(title) > domain.TitleMaxLen {
		return domain.NewValidationError("title", "must be at most 50 characters")
	}

	return nil
}

func validateDetails(details string) error {
	if len(details) > domain.DetailsMaxLen {
		return domain.NewValidationError("details", "must be at most 500 characters")
	}

	return nil
}

func parseDueDate(date string, now time.Time) (*time.Time, error) {
	if date == "" {
		return nil, nil
	}

	parsed, err := time.Parse(dateLayout, date)

	if err != nil {
		return nil, domain.NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}

	if err := domain.ValidateDueDate(&parsed, now); err != nil {
		return nil, domain.NewValidationError("date", err.Error())
	}

	return &parsed, nil
}

// ToTaskResponse is the single mapping from domain tasks to API responses.
func ToTaskResponse(task domain.Task) response.TaskResponse {
	resp := response.TaskResponse{
		UUID:      task.UUID,
		Title:     task.Title,
		Details:   task.Details,
		Hour:      task.DueHour,
		Status:    task.StatusOrFallback(),
		Trashed:   task.IsTrashed(),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}

	if task.DueDate != nil {
		resp.Date = task.DueDate.Format(dateLayout)
	}

	return resp
}
