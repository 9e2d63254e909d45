package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskStatus int

const (
	TaskStatusTodo TaskStatus = iota
	TaskStatusDoing
	TaskStatusDone
)

const (
	TitleMaxLen   = 50
	DetailsMaxLen = 500
)

// Task belongs to exactly one user. DeletedAt doubles as the trash flag:
// nil means active, non-nil means trashed.
type Task struct {
	ID        int
	UUID      uuid.UUID
	Title     string `validate:"required,max=50"`
	Details   string `validate:"max=500"`
	DueDate   *time.Time
	DueHour   string
	Status    int `validate:"oneof=0 1 2"`
	UserId    int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

func (t *Task) IsTrashed() bool {
	return t.DeletedAt != nil
}

func (t *Task) BelongsToUser(userID int) bool {
	return t.UserId == userID
}

func (t *Task) ToMap() map[string]interface{} {
	var dueDate interface{}

	if t.DueDate != nil {
		dueDate = *t.DueDate
	}

	return map[string]interface{}{
		"title":      t.Title,
		"details":    t.Details,
		"due_date":   dueDate,
		"due_hour":   t.DueHour,
		"status":     t.Status,
		"updated_at": t.UpdatedAt,
	}
}

func (t *Task) StatusOrFallback(fallback ...string) string {
	if t.Status >= int(TaskStatusTodo) && t.Status <= int(TaskStatusDone) {
		return TaskStatus(t.Status).String()
	}

	if len(fallback) > 0 && fallback[0] != "" {
		return fallback[0]
	}

	return "unknown"
}

func (t TaskStatus) String() string {
	return []string{"todo", "doing", "done"}[t]
}

func StatusToEnum(status string) (int, error) {
	switch status {
	case "todo", "":
		return int(TaskStatusTodo), nil
	case "doing":
		return int(TaskStatusDoing), nil
	case "done":
		return int(TaskStatusDone), nil
	default:
		return -1, fmt.Errorf("invalid status: %s", status)
	}
}

// ValidateDueHour accepts the empty string or a HH:mm clock value.
func ValidateDueHour(hour string) error {
	if hour == "" {
		return nil
	}

	if _, err := time.Parse("15:04", hour); err != nil {
		return fmt.Errorf("invalid hour: %s", hour)
	}

	return nil
}

// ValidateDueDate rejects dates strictly before today. The comparison is
// date-only, so a task due later today is still valid.
func ValidateDueDate(date *time.Time, now time.Time) error {
	if date == nil {
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if date.Before(today) {
		return fmt.Errorf("due date is in the past: %s", date.Format("2006-01-02"))
	}

	return nil
}
