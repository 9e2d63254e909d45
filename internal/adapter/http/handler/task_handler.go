package handler

import (
	"net/http"
	"strconv"

	"timely/internal/adapter/http/helper"
	"timely/internal/adapter/http/middleware"
	"timely/internal/core/model/request"
	"timely/internal/core/model/response"
	"timely/internal/core/port"
	"timely/internal/core/service"
	"timely/internal/core/util"
	"timely/internal/shared"
	"timely/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultPageSize = 10

type TaskHandler struct {
	svc    port.TaskService
	Logger *shared.AppLogger
}

func NewTaskHandler(svc port.TaskService, logger *shared.AppLogger) *TaskHandler {
	if logger == nil {
		logger = shared.NewNopLogger()
	}

	return &TaskHandler{
		svc:    svc,
		Logger: logger,
	}
}

func (t *TaskHandler) ListActive(c *gin.Context) {
	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.ListActive", []attribute.KeyValue{
		attribute.String("handler.operation", "ListActive"),
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
	})

	defer span.End()

	userId, _ := middleware.CurrentUserID(c)
	cursor := c.Query("cursor")
	limit, _ := strconv.Atoi(c.Query("limit"))

	if limit <= 0 {
		limit = defaultPageSize
	}

	span.SetAttributes(
		attribute.Int("user.id", userId),
		attribute.Int("task.limit", limit),
	)

	data, err := t.svc.GetTasksWithPagination(ctx, userId, limit, cursor)

	if err != nil {
		tracing.AddSpanError(span, err)

		t.Logger.Logger.Ctx(ctx).Error("Failed to list tasks",
			zap.Error(err),
			zap.Int("user_id", userId),
		)

		helper.SendInternalError(c, "error listing tasks")
		return
	}

	c.JSON(http.StatusOK, data)
}

func (t *TaskHandler) ListTrashed(c *gin.Context) {
	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.ListTrashed", []attribute.KeyValue{
		attribute.String("handler.operation", "ListTrashed"),
	})

	defer span.End()

	userId, _ := middleware.CurrentUserID(c)

	tasks, err := t.svc.GetTrashed(ctx, userId)

	if err != nil {
		tracing.AddSpanError(span, err)

		t.Logger.Logger.Ctx(ctx).Error("Failed to list trash",
			zap.Error(err),
			zap.Int("user_id", userId),
		)

		helper.SendInternalError(c, "error listing trash")
		return
	}

	data := make([]response.TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		data = append(data, service.ToTaskResponse(task))
	}

	helper.SendSuccess(c, http.StatusOK, data)
}

func (t *TaskHandler) CreateTask(c *gin.Context) {
	ctx := c.Request.Context()

	userId, _ := middleware.CurrentUserID(c)

	params, err := util.ParamsToMap[request.TaskRequest](c)

	if err != nil {
		helper.SendBadRequestError(c, "request", "invalid request parameters")
		return
	}

	task, err := t.svc.Create(ctx, userId, &params)

	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, service.ToTaskResponse(task))
}

func (t *TaskHandler) UpdateTask(c *gin.Context) {
	ctx := c.Request.Context()

	userId, _ := middleware.CurrentUserID(c)

	uid, ok := taskUUIDParam(c)

	if !ok {
		return
	}

	params, err := util.ParamsToMap[request.TaskUpdateRequest](c)

	if err != nil {
		helper.SendBadRequestError(c, "request", "invalid request parameters")
		return
	}

	task, err := t.svc.Update(ctx, userId, uid, &params)

	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, service.ToTaskResponse(task))
}

// TrashTask moves an active task to the trash. Repeating the call after the
// task is already trashed yields a 404.
func (t *TaskHandler) TrashTask(c *gin.Context) {
	ctx := c.Request.Context()

	userId, _ := middleware.CurrentUserID(c)

	uid, ok := taskUUIDParam(c)

	if !ok {
		return
	}

	task, err := t.svc.SoftDelete(ctx, userId, uid)

	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, service.ToTaskResponse(task), "task moved to trash")
}

func (t *TaskHandler) RestoreTask(c *gin.Context) {
	ctx := c.Request.Context()

	userId, _ := middleware.CurrentUserID(c)

	uid, ok := taskUUIDParam(c)

	if !ok {
		return
	}

	task, err := t.svc.Restore(ctx, userId, uid)

	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, service.ToTaskResponse(task), "task restored")
}

func (t *TaskHandler) PurgeTask(c *gin.Context) {
	ctx := c.Request.Context()

	userId, _ := middleware.CurrentUserID(c)

	uid, ok := taskUUIDParam(c)

	if !ok {
		return
	}

	if err := t.svc.PermanentlyDelete(ctx, userId, uid); err != nil {
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, nil, "task permanently deleted")
}

// taskUUIDParam reads the :uuid path param. A malformed id answers 404 so
// callers cannot distinguish it from a missing task.
func taskUUIDParam(c *gin.Context) (string, bool) {
	uid := c.Param("uuid")

	if _, err := uuid.Parse(uid); err != nil {
		helper.SendNotFoundError(c, "not found")
		return "", false
	}

	return uid, true
}
