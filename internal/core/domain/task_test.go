package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timely/internal/core/domain"
)

func TestStatusToEnum(t *testing.T) {
	cases := []struct {
		status   string
		expected int
		invalid  bool
	}{
		{"todo", 0, false},
		{"", 0, false},
		{"doing", 1, false},
		{"done", 2, false},
		{"archived", -1, true},
	}

	for _, c := range cases {
		got, err := domain.StatusToEnum(c.status)

		if c.invalid {
			assert.Error(t, err)
			continue
		}

		assert.NoError(t, err)
		assert.Equal(t, c.expected, got)
	}
}

func TestStatusOrFallback(t *testing.T) {
	task := domain.Task{Status: int(domain.TaskStatusDoing)}
	assert.Equal(t, "doing", task.StatusOrFallback())

	task.Status = 99
	assert.Equal(t, "unknown", task.StatusOrFallback())
	assert.Equal(t, "todo", task.StatusOrFallback("todo"))
}

func TestValidateDueHour(t *testing.T) {
	assert.NoError(t, domain.ValidateDueHour(""))
	assert.NoError(t, domain.ValidateDueHour("09:30"))
	assert.NoError(t, domain.ValidateDueHour("23:59"))
	assert.Error(t, domain.ValidateDueHour("25:00"))
	assert.Error(t, domain.ValidateDueHour("9h30"))
}

func TestValidateDueDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	assert.NoError(t, domain.ValidateDueDate(nil, now))

	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, domain.ValidateDueDate(&today, now))

	future := now.AddDate(0, 1, 0)
	assert.NoError(t, domain.ValidateDueDate(&future, now))

	past := now.AddDate(0, 0, -1)
	assert.Error(t, domain.ValidateDueDate(&past, now))
}

func TestTaskIsTrashed(t *testing.T) {
	task := domain.Task{}
	assert.False(t, task.IsTrashed())

	now := time.Now()
	task.DeletedAt = &now
	assert.True(t, task.IsTrashed())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", domain.NormalizeEmail("  User@Example.COM "))
}
