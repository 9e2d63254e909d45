package repository_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	. "timely/pkg/test"

	"timely/internal/adapter/database/sqlite/repository"
	"timely/internal/core/domain"
	"timely/internal/core/port"
	"timely/pkg/test/factory"
)

var ctx = context.Background()

type TaskRepositoryTestSuite struct {
	suite.Suite
	UserRepo port.UserRepository
	TaskRepo port.TaskRepository
}

func (s *TaskRepositoryTestSuite) SetupTest() {
	db := InitTestDB()

	s.UserRepo = repository.NewUserRepository(db, nil)
	s.TaskRepo = repository.NewTaskRepository(db, nil)
}

func TestTaskRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TaskRepositoryTestSuite))
}

func (s *TaskRepositoryTestSuite) createUser(email string) domain.User {
	user, err := s.UserRepo.Create(ctx, factory.NewUser[domain.User](map[string]any{
		"Email": email,
	}))
	assert.NoError(s.T(), err)

	return user
}

func (s *TaskRepositoryTestSuite) createTask(user domain.User, custom map[string]any) domain.Task {
	custom["UserId"] = user.ID

	task, err := s.TaskRepo.Create(ctx, factory.NewTask[domain.Task](custom))
	assert.NoError(s.T(), err)

	return task
}

func (s *TaskRepositoryTestSuite) TestCreateAndGetByUUID() {
	user := s.createUser("owner@example.com")
	task := s.createTask(user, map[string]any{
		"Title":  "Water the plants",
		"Status": int(domain.TaskStatusDoing),
	})

	found, err := s.TaskRepo.GetByUUID(ctx, user.ID, task.UUID.String())

	assert.NoError(s.T(), err)
	Expect(found.Title).To(Equal("Water the plants"))
	Expect(found.Status).To(Equal(int(domain.TaskStatusDoing)))
	Expect(found.ID).To(Equal(task.ID))
}

func (s *TaskRepositoryTestSuite) TestGetByUUID_OtherUsersTask() {
	owner := s.createUser("owner@example.com")
	other := s.createUser("other@example.com")
	task := s.createTask(owner, map[string]any{"Title": "Private"})

	_, err := s.TaskRepo.GetByUUID(ctx, other.ID, task.UUID.String())

	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TaskRepositoryTestSuite) TestSoftDelete_OnlyHitsActiveRows() {
	user := s.createUser("owner@example.com")
	task := s.createTask(user, map[string]any{"Title": "Disposable"})

	trashed, err := s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, task.UUID.String())

	assert.NoError(s.T(), err)
	Expect(trashed.IsTrashed()).To(BeTrue())

	_, err = s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TaskRepositoryTestSuite) TestRestore_OnlyHitsTrashedRows() {
	user := s.createUser("owner@example.com")
	task := s.createTask(user, map[string]any{"Title": "Recoverable"})

	_, err := s.TaskRepo.RestoreByUUID(ctx, user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, task.UUID.String())
	assert.NoError(s.T(), err)

	restored, err := s.TaskRepo.RestoreByUUID(ctx, user.ID, task.UUID.String())

	assert.NoError(s.T(), err)
	Expect(restored.IsTrashed()).To(BeFalse())
}

func (s *TaskRepositoryTestSuite) TestPermanentDelete_RequiresTrash() {
	user := s.createUser("owner@example.com")
	task := s.createTask(user, map[string]any{"Title": "Gone for good"})

	err := s.TaskRepo.PermanentlyDeleteByUUID(ctx, user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, task.UUID.String())
	assert.NoError(s.T(), err)

	err = s.TaskRepo.PermanentlyDeleteByUUID(ctx, user.ID, task.UUID.String())
	assert.NoError(s.T(), err)

	_, err = s.TaskRepo.GetByUUID(ctx, user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TaskRepositoryTestSuite) TestGetActiveWithCursor_ExcludesTrashed() {
	user := s.createUser("owner@example.com")
	keep := s.createTask(user, map[string]any{"Title": "Keep"})
	trash := s.createTask(user, map[string]any{"Title": "Trash"})

	_, err := s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, trash.UUID.String())
	assert.NoError(s.T(), err)

	tasks, hasNext, err := s.TaskRepo.GetActiveWithCursor(ctx, user.ID, 10, "")

	assert.NoError(s.T(), err)
	Expect(hasNext).To(BeFalse())
	Expect(tasks).To(HaveLen(1))
	Expect(tasks[0].UUID).To(Equal(keep.UUID))
}

func (s *TaskRepositoryTestSuite) TestGetActiveWithCursor_NewestFirst() {
	user := s.createUser("owner@example.com")

	base := time.Now().Add(-1 * time.Hour)

	for i, title := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.createTask(user, map[string]any{
			"Title":     title,
			"CreatedAt": at,
			"UpdatedAt": at,
		})
	}

	tasks, hasNext, err := s.TaskRepo.GetActiveWithCursor(ctx, user.ID, 2, "")

	assert.NoError(s.T(), err)
	Expect(hasNext).To(BeTrue())
	Expect(tasks).To(HaveLen(2))
	Expect(tasks[0].Title).To(Equal("third"))
	Expect(tasks[1].Title).To(Equal("second"))
}

func (s *TaskRepositoryTestSuite) TestGetTrashed_MostRecentlyTrashedFirst() {
	user := s.createUser("owner@example.com")
	older := s.createTask(user, map[string]any{"Title": "older"})
	newer := s.createTask(user, map[string]any{"Title": "newer"})

	_, err := s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, older.UUID.String())
	assert.NoError(s.T(), err)

	time.Sleep(5 * time.Millisecond)

	_, err = s.TaskRepo.SoftDeleteByUUID(ctx, user.ID, newer.UUID.String())
	assert.NoError(s.T(), err)

	tasks, err := s.TaskRepo.GetTrashed(ctx, user.ID)

	assert.NoError(s.T(), err)
	Expect(tasks).To(HaveLen(2))
	Expect(tasks[0].Title).To(Equal("newer"))
	Expect(tasks[1].Title).To(Equal("older"))
}
