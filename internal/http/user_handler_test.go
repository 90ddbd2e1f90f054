package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatline/internal/chat"
	"chatline/internal/domain"
	"chatline/internal/repository"
	"chatline/internal/service"
)

func newTestServer(t *testing.T) (*gin.Engine, *repository.MemoryMessageRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	userSvc := service.NewUserService(logger, repository.NewMemoryUserRepository(), nil)
	sessionSvc := service.NewSessionService(logger, repository.NewMemorySessionRepository(), time.Hour)
	messageRepo := repository.NewMemoryMessageRepository()
	messageSvc := service.NewMessageService(messageRepo)

	registry := chat.NewRegistry(logger)
	registry.SetListener(chat.NewPublisher(logger, registry))
	chatRouter := chat.NewRouter(logger, registry, messageRepo)

	userH := NewUserHandler(logger, userSvc, sessionSvc)
	chatH := NewChatHandler(logger, userSvc, messageSvc, registry, 50)
	wsH := NewWSHandler(logger, sessionSvc, registry, chatRouter)

	return NewRouter(logger, sessionSvc, userH, chatH, wsH), messageRepo
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	doJSON(t, r, http.MethodPost, "/register", `{"username":"`+username+`","password":"`+password+`"}`, "")
	rec := doJSON(t, r, http.MethodPost, "/login", `{"username":"`+username+`","password":"`+password+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/login", `{"username":"alice","password":"secret123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var loginResp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Token == "" || !loginResp.ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected login response: %s", rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/users", "", loginResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("users: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/logout", "", loginResp.Token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	// El token revocado deja de servir.
	rec = doJSON(t, r, http.MethodGet, "/users", "", loginResp.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/register", `{"username":"ab","password":"secret123"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short username: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/register", `{"username":"alice","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}

	doJSON(t, r, http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`, "")
	rec = doJSON(t, r, http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate username: expected 409, got %d", rec.Code)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	r, _ := newTestServer(t)

	doJSON(t, r, http.MethodPost, "/register", `{"username":"alice","password":"secret123"}`, "")

	rec := doJSON(t, r, http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func seedGlobalMessages(t *testing.T, repo *repository.MemoryMessageRepository, contents ...string) {
	t.Helper()
	for _, content := range contents {
		if _, err := repo.Append(context.Background(), domain.Message{
			Sender:  "alice",
			Content: content,
			SentAt:  time.Now().UTC(),
		}); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}
}

func TestGlobalHistory_ReturnsRecentMessages(t *testing.T) {
	r, messages := newTestServer(t)
	token := loginAs(t, r, "alice", "secret123")

	seedGlobalMessages(t, messages, "m1", "m2", "m3", "m4", "m5")

	rec := doJSON(t, r, http.MethodGet, "/messages/global?limit=3", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(resp.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(resp.Messages))
	}
	for i, want := range []string{"m3", "m4", "m5"} {
		if resp.Messages[i].Content != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, resp.Messages[i].Content)
		}
	}

	rec = doJSON(t, r, http.MethodGet, "/messages/global?limit=nope", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limit, got %d", rec.Code)
	}
}

func TestWS_RejectsInvalidTokenBeforeUpgrade(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=never-issued", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before upgrade, got %d", rec.Code)
	}
}
