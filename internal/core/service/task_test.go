package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	. "timely/pkg/test"

	"timely/internal/adapter/database/sqlite/repository"
	"timely/internal/core/domain"
	"timely/internal/core/model/request"
	"timely/internal/core/model/response"
	"timely/internal/core/port"
	"timely/internal/core/service"
	"timely/pkg/test/factory"
)

type TaskServiceTestSuite struct {
	suite.Suite
	Service  *service.TaskService
	UserRepo port.UserRepository
}

func (s *TaskServiceTestSuite) SetupTest() {
	db := InitTestDB()

	s.UserRepo = repository.NewUserRepository(db, nil)
	s.Service = service.NewTaskService(repository.NewTaskRepository(db, nil), nil)
}

func TestTaskServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) createUser(email string) domain.User {
	user, err := s.UserRepo.Create(context.Background(), factory.NewUser[domain.User](map[string]any{
		"Email": email,
	}))
	assert.NoError(s.T(), err)

	return user
}

func strPtr(v string) *string { return &v }

func (s *TaskServiceTestSuite) TestCreate_Defaults() {
	user := s.createUser("owner@example.com")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title: "Buy groceries",
	})

	assert.NoError(s.T(), err)
	Expect(task.Title).To(Equal("Buy groceries"))
	Expect(task.Status).To(Equal(int(domain.TaskStatusTodo)))
	Expect(task.DueDate).To(BeNil())
	Expect(task.IsTrashed()).To(BeFalse())
}

func (s *TaskServiceTestSuite) TestCreate_TitleBoundary() {
	user := s.createUser("owner@example.com")

	_, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title: strings.Repeat("a", domain.TitleMaxLen),
	})
	assert.NoError(s.T(), err)

	_, err = s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title: strings.Repeat("a", domain.TitleMaxLen+1),
	})
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TaskServiceTestSuite) TestCreate_RejectsPastDueDate() {
	user := s.createUser("owner@example.com")

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	_, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title: "Time travel",
		Date:  yesterday,
	})
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TaskServiceTestSuite) TestCreate_AcceptsTodayAsDueDate() {
	user := s.createUser("owner@example.com")

	today := time.Now().Format("2006-01-02")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title: "Due today",
		Date:  today,
		Hour:  "09:30",
	})

	assert.NoError(s.T(), err)
	Expect(task.DueDate).NotTo(BeNil())
	Expect(task.DueHour).To(Equal("09:30"))
}

func (s *TaskServiceTestSuite) TestCreate_RejectsMalformedHour() {
	user := s.createUser("owner@example.com")

	_, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title: "Bad hour",
		Hour:  "25:99",
	})
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TaskServiceTestSuite) TestCreate_RejectsUnknownStatus() {
	user := s.createUser("owner@example.com")

	_, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title:  "Bad status",
		Status: "blocked",
	})
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *TaskServiceTestSuite) TestUpdate_PartialMerge() {
	user := s.createUser("owner@example.com")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{
		Title:   "Original",
		Details: "keep me",
	})
	assert.NoError(s.T(), err)

	updated, err := s.Service.Update(context.Background(), user.ID, task.UUID.String(), &request.TaskUpdateRequest{
		Status: strPtr("doing"),
	})

	assert.NoError(s.T(), err)
	Expect(updated.Title).To(Equal("Original"))
	Expect(updated.Details).To(Equal("keep me"))
	Expect(updated.Status).To(Equal(int(domain.TaskStatusDoing)))
}

func (s *TaskServiceTestSuite) TestUpdate_OtherUsersTaskIsNotFound() {
	owner := s.createUser("owner@example.com")
	intruder := s.createUser("intruder@example.com")

	task, err := s.Service.Create(context.Background(), owner.ID, &request.TaskRequest{Title: "Private"})
	assert.NoError(s.T(), err)

	_, err = s.Service.Update(context.Background(), intruder.ID, task.UUID.String(), &request.TaskUpdateRequest{
		Title: strPtr("Hijacked"),
	})
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TaskServiceTestSuite) TestSoftDeleteAndRestore_RoundTrip() {
	user := s.createUser("owner@example.com")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: "Cycle"})
	assert.NoError(s.T(), err)

	trashed, err := s.Service.SoftDelete(context.Background(), user.ID, task.UUID.String())
	assert.NoError(s.T(), err)
	Expect(trashed.IsTrashed()).To(BeTrue())

	restored, err := s.Service.Restore(context.Background(), user.ID, task.UUID.String())
	assert.NoError(s.T(), err)
	Expect(restored.IsTrashed()).To(BeFalse())
	Expect(restored.Title).To(Equal("Cycle"))
	Expect(restored.Status).To(Equal(task.Status))
}

func (s *TaskServiceTestSuite) TestSoftDelete_TwiceFails() {
	user := s.createUser("owner@example.com")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: "Once"})
	assert.NoError(s.T(), err)

	_, err = s.Service.SoftDelete(context.Background(), user.ID, task.UUID.String())
	assert.NoError(s.T(), err)

	_, err = s.Service.SoftDelete(context.Background(), user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TaskServiceTestSuite) TestRestore_ActiveTaskFails() {
	user := s.createUser("owner@example.com")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: "Active"})
	assert.NoError(s.T(), err)

	_, err = s.Service.Restore(context.Background(), user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TaskServiceTestSuite) TestPermanentlyDelete_OnlyFromTrash() {
	user := s.createUser("owner@example.com")

	task, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: "Keep safe"})
	assert.NoError(s.T(), err)

	err = s.Service.PermanentlyDelete(context.Background(), user.ID, task.UUID.String())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.Service.SoftDelete(context.Background(), user.ID, task.UUID.String())
	assert.NoError(s.T(), err)

	err = s.Service.PermanentlyDelete(context.Background(), user.ID, task.UUID.String())
	assert.NoError(s.T(), err)

	trashed, err := s.Service.GetTrashed(context.Background(), user.ID)
	assert.NoError(s.T(), err)
	Expect(trashed).To(BeEmpty())
}

func (s *TaskServiceTestSuite) TestTrashedTasksLeaveActiveList() {
	user := s.createUser("owner@example.com")

	first, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: "Stays"})
	assert.NoError(s.T(), err)

	second, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: "Goes"})
	assert.NoError(s.T(), err)

	_, err = s.Service.SoftDelete(context.Background(), user.ID, second.UUID.String())
	assert.NoError(s.T(), err)

	page, err := s.Service.GetTasksWithPagination(context.Background(), user.ID, 10, "")
	assert.NoError(s.T(), err)

	var active []response.TaskResponse
	assert.NoError(s.T(), json.Unmarshal(page.Data, &active))
	Expect(active).To(HaveLen(1))
	Expect(active[0].UUID).To(Equal(first.UUID))

	trashed, err := s.Service.GetTrashed(context.Background(), user.ID)
	assert.NoError(s.T(), err)
	Expect(trashed).To(HaveLen(1))
	Expect(trashed[0].UUID).To(Equal(second.UUID))
}

func (s *TaskServiceTestSuite) TestPagination_CursorWalksNewestFirst() {
	user := s.createUser("owner@example.com")

	titles := []string{"one", "two", "three", "four", "five"}
	for _, title := range titles {
		_, err := s.Service.Create(context.Background(), user.ID, &request.TaskRequest{Title: title})
		assert.NoError(s.T(), err)
	}

	var seen []string
	cursor := ""

	for {
		page, err := s.Service.GetTasksWithPagination(context.Background(), user.ID, 2, cursor)
		assert.NoError(s.T(), err)

		var items []response.TaskResponse
		assert.NoError(s.T(), json.Unmarshal(page.Data, &items))

		for _, item := range items {
			seen = append(seen, item.Title)
		}

		if !page.Pagination.HasNext {
			break
		}
		cursor = page.Pagination.NextCursor
	}

	Expect(seen).To(HaveLen(len(titles)))
	Expect(seen[0]).To(Equal("five"))
	Expect(seen[len(seen)-1]).To(Equal("one"))
}

func (s *TaskServiceTestSuite) TestPagination_RejectsTamperedCursor() {
	user := s.createUser("owner@example.com")

	_, err := s.Service.GetTasksWithPagination(context.Background(), user.ID, 10, "bm90LXZhbGlk.c2ln")
	assert.Error(s.T(), err)
}
