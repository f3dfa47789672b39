package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

type stubStorage struct{}

func (stubStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (stubStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (stubStorage) DeleteObject(context.Context, string) error { return nil }

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memory.NewStore()
	access := service.NewAccessResolver(s.Users(), s.Programs(), s.ProgramItems(), s.ClientPrograms(), s.Overrides())
	svc := Services{
		Auth:  service.NewAuthService(s.Users(), testSecret, time.Hour),
		Coach: service.NewCoachService(access, s.Users()),
		Program: service.NewProgramService(access, s.Programs(), s.ProgramDays(), s.ProgramItems(),
			s.ClientPrograms(), s.Overrides(), s.Completions()),
		Assignment: service.NewAssignmentService(access, s.Users(), s.ProgramDays(), s.ProgramItems(),
			s.ClientPrograms(), s.Overrides(), s.Completions()),
		Override:   service.NewOverrideService(access, s.ProgramDays(), s.ProgramItems(), s.Overrides(), s.Completions()),
		Completion: service.NewCompletionService(access, s.ProgramDays(), s.ProgramItems(), s.Overrides(), s.Completions()),
		Feed: service.NewFeedService(access, s.Users(), s.ProgramDays(), s.ProgramItems(), s.ClientPrograms(),
			s.Overrides(), s.Completions(), 50),
		Media: service.NewMediaService(access, s.ProgramItems(), s.ClientPrograms(), stubStorage{}, time.Minute),
	}

	router := gin.New()
	SetupRoutes(router, testSecret, svc)
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// call performs the request, checks the status and decodes the body into out.
func (s *testServer) call(method, path, token string, body interface{}, wantStatus int, out interface{}) {
	s.t.Helper()
	w := s.do(method, path, token, body)
	if w.Code != wantStatus {
		s.t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, wantStatus, w.Code, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
}

// signup registers a user and logs them in, returning the token.
func (s *testServer) signup(name, email string, role domain.Role) (string, UserResponse) {
	s.t.Helper()
	s.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": email, "password": "password123", "role": role,
	}, http.StatusCreated, nil)

	var resp LoginResponse
	s.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": email, "password": "password123",
	}, http.StatusOK, &resp)
	if resp.Token == "" {
		s.t.Fatal("login returned no token")
	}
	return resp.Token, resp.User
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body
}
