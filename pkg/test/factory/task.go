package factory

import (
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"
)

// NewTask builds a task-shaped struct with a fresh uuid and timestamps unless
// the caller supplies them.
func NewTask[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	defaults := map[string]any{
		"UUID":      uuid.New(),
		"Status":    0,
		"CreatedAt": time.Now().UTC(),
		"UpdatedAt": time.Now().UTC(),
	}

	for key, value := range defaults {
		found := false

		for _, data := range customData {
			if _, exists := data[key]; exists {
				found = true
				break
			}
		}

		if !found {
			customData = append(customData, map[string]any{key: value})
		}
	}

	return instance.Build(customData...)
}
