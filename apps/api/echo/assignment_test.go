package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/assignment"
	logsvc "github.com/chuoapp/chuo/services/logger"
	dummynotif "github.com/chuoapp/chuo/services/notification/dummy"
	dummydb "github.com/chuoapp/chuo/storage/database/dummy"
	testutil "github.com/chuoapp/chuo/tests"
)

var testNow = time.Date(2025, time.January, 19, 8, 0, 0, 0, time.Local)

func setup(t *testing.T) (Server, assignment.Repository, *dummynotif.Service) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewAssignmentRepository(db)
	notifSvc := dummynotif.NewService()
	logger := logsvc.NewNopLogger()
	svc := assignment.NewServiceMock(repo, notifSvc, logger, func() time.Time { return testNow })

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:           &core.Config{TestMode: true},
		Logger:         logger,
		AssignmentSvc:  svc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		NowFunc:        func() time.Time { return testNow },
	})
	return app, repo, notifSvc
}

func newOwnerRequest(method, path, ownerID string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if ownerID != "" {
		req.Header.Set(ownerHeader, ownerID)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func Test_assignmentApi_ownerRequired(t *testing.T) {
	app, _, _ := setup(t)

	req, rec := newOwnerRequest(http.MethodGet, "/v1/assignments", "")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_assignmentApi_assignmentCreate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		app, _, notifSvc := setup(t)

		body := marshallObj(t, assignment.NewAssignment{
			Title:   "Algebra problem set",
			Subject: "Mathematics",
			DueDate: "2025-01-20",
			DueTime: "23:59",
		})
		req, rec := newOwnerRequest(http.MethodPost, "/v1/assignments", "std1", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var res AssignmentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "std1", res.OwnerID)
		assert.Equal(t, assignment.StatusPending, res.Status)
		assert.Len(t, res.Reminders, 4)
		assert.Len(t, res.NotificationHandles, 3)
		assert.Nil(t, res.Warning)
		assert.Len(t, notifSvc.Live(), 3)
	})

	t.Run("validation error", func(t *testing.T) {
		app, _, _ := setup(t)

		body := marshallObj(t, assignment.NewAssignment{
			Title:   "Algebra problem set",
			DueDate: "someday",
			DueTime: "23:59",
		})
		req, rec := newOwnerRequest(http.MethodPost, "/v1/assignments", "std1", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fldErrs map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &fldErrs); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		assert.Contains(t, fldErrs, "due_date")
	})

	t.Run("degraded scheduling reported", func(t *testing.T) {
		app, _, notifSvc := setup(t)
		notifSvc.FailNext = 1

		body := marshallObj(t, assignment.NewAssignment{
			Title:   "Algebra problem set",
			DueDate: "2025-01-20",
			DueTime: "23:59",
		})
		req, rec := newOwnerRequest(http.MethodPost, "/v1/assignments", "std1", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var res AssignmentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if res.Warning == nil {
			t.Fatal("scheduling_warning missing from response")
		}
		assert.Equal(t, 3, res.Warning.Requested)
		assert.Equal(t, 2, res.Warning.Scheduled)
	})
}

func Test_assignmentApi_assignmentQuery(t *testing.T) {
	app, repo, _ := setup(t)

	pastDue := testutil.CreateAssignment(t, repo, "std1", "Late lab report", "Physics", "2025-01-10", "09:00", assignment.StatusPending, nil)
	upcoming := testutil.CreateAssignment(t, repo, "std1", "Algebra problem set", "Mathematics", "2025-01-20", "23:59", assignment.StatusPending, nil)
	testutil.CreateAssignment(t, repo, "std2", "Someone else's", "Physics", "2025-01-10", "09:00", assignment.StatusPending, nil)

	t.Run("scoped to owner with derived overdue flag", func(t *testing.T) {
		req, rec := newOwnerRequest(http.MethodGet, "/v1/assignments", "std1")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res AssignmentListResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		assert.Len(t, res.Assignments, 2)
		flags := make(map[string]bool, len(res.Assignments))
		for _, a := range res.Assignments {
			flags[a.ID] = a.IsOverdue
		}
		assert.True(t, flags[pastDue.ID])
		assert.False(t, flags[upcoming.ID])
	})

	t.Run("filtered", func(t *testing.T) {
		req, rec := newOwnerRequest(http.MethodGet, "/v1/assignments?subject=Physics", "std1")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var res AssignmentListResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		assert.Len(t, res.Assignments, 1)
		assert.Equal(t, pastDue.ID, res.Assignments[0].ID)
	})
}

func Test_assignmentApi_assignmentRetrieve(t *testing.T) {
	app, repo, _ := setup(t)

	a := testutil.CreateAssignment(t, repo, "std1", "Algebra problem set", "Mathematics", "2025-01-20", "23:59", assignment.StatusPending, nil)

	t.Run("ok", func(t *testing.T) {
		req, rec := newOwnerRequest(http.MethodGet, "/v1/assignments/"+a.ID, "std1")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		req, rec := newOwnerRequest(http.MethodGet, "/v1/assignments/nope", "std1")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("foreign owner", func(t *testing.T) {
		req, rec := newOwnerRequest(http.MethodGet, "/v1/assignments/"+a.ID, "std2")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_assignmentApi_assignmentUpdate(t *testing.T) {
	app, _, notifSvc := setup(t)

	// create through the API so handles are registered
	body := marshallObj(t, assignment.NewAssignment{
		Title:   "Algebra problem set",
		DueDate: "2025-01-20",
		DueTime: "23:59",
	})
	req, rec := newOwnerRequest(http.MethodPost, "/v1/assignments", "std1", body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created AssignmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}

	body = marshallObj(t, map[string]string{"due_date": "2025-01-25", "due_time": "18:00"})
	req, rec = newOwnerRequest(http.MethodPut, "/v1/assignments/"+created.ID, "std1", body)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var updated AssignmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	assert.Equal(t, "2025-01-25", updated.DueDate)
	assert.Equal(t, "Algebra problem set", updated.Title) // blank keeps stored value
	assert.ElementsMatch(t, updated.NotificationHandles, notifSvc.Live())
	for _, h := range created.NotificationHandles {
		assert.NotContains(t, updated.NotificationHandles, h)
	}
}

func Test_assignmentApi_assignmentToggleStatus(t *testing.T) {
	app, repo, _ := setup(t)

	a := testutil.CreateAssignment(t, repo, "std1", "Algebra problem set", "Mathematics", "2025-01-20", "23:59", assignment.StatusPending, nil)
	path := fmt.Sprintf("/v1/assignments/%s/toggle-status", a.ID)

	req, rec := newOwnerRequest(http.MethodPost, path, "std1")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var res AssignmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	assert.Equal(t, assignment.StatusCompleted, res.Status)
	assert.NotNil(t, res.CompletedAt)
	assert.Empty(t, res.NotificationHandles)
	assert.False(t, res.IsOverdue)

	// toggle back
	req, rec = newOwnerRequest(http.MethodPost, path, "std1")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var toggled AssignmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &toggled); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	assert.Equal(t, assignment.StatusPending, toggled.Status)
	assert.Nil(t, toggled.CompletedAt)
}

func Test_assignmentApi_assignmentDestroy(t *testing.T) {
	app, repo, notifSvc := setup(t)

	a := testutil.CreateAssignment(t, repo, "std1", "Algebra problem set", "Mathematics", "2025-01-20", "23:59", assignment.StatusPending, nil)

	req, rec := newOwnerRequest(http.MethodDelete, "/v1/assignments/"+a.ID, "std1")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, notifSvc.Live())

	req, rec = newOwnerRequest(http.MethodGet, "/v1/assignments/"+a.ID, "std1")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
