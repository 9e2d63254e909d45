package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	. "timely/pkg/test"

	"timely/internal/adapter/database/sqlite/repository"
	"timely/internal/adapter/http/handler"
	"timely/internal/adapter/http/routes"
	"timely/internal/adapter/mail"
	"timely/internal/core/service"
	"timely/pkg/client"
	"timely/pkg/config"
)

type ClientSuite struct {
	suite.Suite
	Server *httptest.Server
	Client *client.Client
}

var ctx = context.Background()

func (s *ClientSuite) SetupTest() {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	db := InitTestDB()

	userRepo := repository.NewUserRepository(db, nil)
	taskRepo := repository.NewTaskRepository(db, nil)

	authSvc := service.NewAuthService(userRepo, mail.NewMemoryMailer(), "http://localhost:8080")
	taskSvc := service.NewTaskService(taskRepo, nil)

	router := routes.SetupRouterForTests(routes.HandlersConfig{
		AuthService: authSvc,
		AuthHandler: handler.NewAuthHandler(authSvc, config.GetDefaultConfig()),
		TaskHandler: handler.NewTaskHandler(taskSvc, nil),
	})

	s.Server = httptest.NewServer(router)

	c, err := client.New(s.Server.URL)
	assert.NoError(s.T(), err)
	s.Client = c
}

func (s *ClientSuite) TearDownTest() {
	if s.Server != nil {
		s.Server.Close()
	}
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) signUp() {
	_, err := s.Client.Register(ctx, client.RegisterParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Age:       30,
		Email:     "ada@test.com",
		Password:  "Sup3rSecret!",
	})
	assert.NoError(s.T(), err)

	_, err = s.Client.Login(ctx, "ada@test.com", "Sup3rSecret!")
	assert.NoError(s.T(), err)
}

func (s *ClientSuite) TestRegisterLoginVerify() {
	s.signUp()

	user, err := s.Client.Verify(ctx)

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "ada@test.com", user.Email)
}

func (s *ClientSuite) TestLoginFailureSurfacesAPIError() {
	s.signUp()

	_, err := s.Client.Login(ctx, "ada@test.com", "Wr0ngSecret!")

	var apiErr *client.APIError
	assert.True(s.T(), errors.As(err, &apiErr))
	assert.Equal(s.T(), 401, apiErr.StatusCode)
	assert.Equal(s.T(), "UNAUTHORIZED", apiErr.Code)
}

func (s *ClientSuite) TestTaskLifecycle() {
	s.signUp()

	task, err := s.Client.CreateTask(ctx, client.TaskParams{Title: "Write report", Hour: "10:00"})
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "todo", task.Status)

	updated, err := s.Client.UpdateTask(ctx, task.UUID, client.TaskParams{Status: "done"})
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "done", updated.Status)

	trashed, err := s.Client.TrashTask(ctx, task.UUID)
	assert.NoError(s.T(), err)
	assert.True(s.T(), trashed.Trashed)

	trash, err := s.Client.ListTrash(ctx)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), trash, 1)

	restored, err := s.Client.RestoreTask(ctx, task.UUID)
	assert.NoError(s.T(), err)
	assert.False(s.T(), restored.Trashed)

	_, err = s.Client.TrashTask(ctx, task.UUID)
	assert.NoError(s.T(), err)

	assert.NoError(s.T(), s.Client.PurgeTask(ctx, task.UUID))

	trash, err = s.Client.ListTrash(ctx)
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), trash)
}

func (s *ClientSuite) TestListCacheInvalidatedByMutation() {
	s.signUp()

	_, err := s.Client.CreateTask(ctx, client.TaskParams{Title: "First"})
	assert.NoError(s.T(), err)

	page, err := s.Client.ListTasks(ctx, 10, "")
	assert.NoError(s.T(), err)
	assert.Len(s.T(), page.Tasks, 1)

	// Cached copy serves the repeat read.
	again, err := s.Client.ListTasks(ctx, 10, "")
	assert.NoError(s.T(), err)
	assert.Len(s.T(), again.Tasks, 1)

	_, err = s.Client.CreateTask(ctx, client.TaskParams{Title: "Second"})
	assert.NoError(s.T(), err)

	fresh, err := s.Client.ListTasks(ctx, 10, "")
	assert.NoError(s.T(), err)
	assert.Len(s.T(), fresh.Tasks, 2)
}

func (s *ClientSuite) TestCursorWalk() {
	s.signUp()

	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Client.CreateTask(ctx, client.TaskParams{Title: title})
		assert.NoError(s.T(), err)
	}

	var seen []string
	cursor := ""

	for {
		page, err := s.Client.ListTasks(ctx, 2, cursor)
		assert.NoError(s.T(), err)

		for _, task := range page.Tasks {
			seen = append(seen, task.Title)
		}

		if !page.HasNext {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(s.T(), []string{"c", "b", "a"}, seen)
}

func (s *ClientSuite) TestUnauthenticatedListFails() {
	_, err := s.Client.ListTasks(ctx, 10, "")

	var apiErr *client.APIError
	assert.True(s.T(), errors.As(err, &apiErr))
	assert.Equal(s.T(), 401, apiErr.StatusCode)
}
