package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tvural/taskchat/internal/agent"
	"github.com/tvural/taskchat/internal/auth"
	"github.com/tvural/taskchat/internal/llm"
	"github.com/tvural/taskchat/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// scriptedClient always answers with a fixed reply and no tool calls.
type scriptedClient struct {
	reply string
}

func (c *scriptedClient) NewSession(system string, history []llm.Message, tools []llm.ToolDefinition) llm.Session {
	return &scriptedSession{reply: c.reply}
}

type scriptedSession struct {
	reply string
}

func (s *scriptedSession) Send(ctx context.Context, content string) (*llm.Turn, error) {
	return &llm.Turn{Content: s.reply}, nil
}

func (s *scriptedSession) Resume(ctx context.Context, results []llm.ToolResult) (*llm.Turn, error) {
	return &llm.Turn{Content: s.reply}, nil
}

type testEnv struct {
	router *gin.Engine
	tasks  *store.TaskStore
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := store.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.DiscardHandler)
	tasks := store.NewTaskStore(db, log)
	conversations := store.NewConversationStore(db, log)
	registry := agent.NewRegistry(tasks, log)
	assistant := agent.New(&scriptedClient{reply: "Sure thing."}, registry, log)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authSvc := auth.NewService(db, tokens, log)

	router := NewRouter(Deps{
		Auth:          authSvc,
		Agent:         assistant,
		Tasks:         tasks,
		Conversations: conversations,
		ContextWindow: store.DefaultContextWindow,
		Log:           log,
	})

	return &testEnv{router: router, tasks: tasks, auth: authSvc}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signup(t *testing.T, name, email string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signup", "",
		`{"name":"`+name+`","email":"`+email+`","password":"hunter22"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	return resp.User.ID, resp.Token
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSignupLoginMe(t *testing.T) {
	e := newTestEnv(t)

	userID, token := e.signup(t, "Alice", "alice@example.com")

	w := e.do(t, http.MethodGet, "/api/auth/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", w.Code, w.Body.String())
	}
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	json.Unmarshal(w.Body.Bytes(), &me)
	if me.ID != userID || me.Email != "alice@example.com" {
		t.Errorf("me = %+v", me)
	}

	if w := e.do(t, http.MethodGet, "/api/auth/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated me status = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/auth/me", "bogus-token", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token me status = %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"hunter22"}`)
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d: %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", w.Code)
	}
}

func TestSignupConflict(t *testing.T) {
	e := newTestEnv(t)

	e.signup(t, "Alice", "alice@example.com")
	w := e.do(t, http.MethodPost, "/api/auth/signup", "",
		`{"name":"Other","email":"alice@example.com","password":"hunter22"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d", w.Code)
	}
}

func TestListTasksEndpoint(t *testing.T) {
	e := newTestEnv(t)
	userID, token := e.signup(t, "Alice", "alice@example.com")

	c := context.Background()
	e.tasks.Create(c, userID, "one", "")
	done, _ := e.tasks.Create(c, userID, "two", "")
	e.tasks.SetCompleted(c, userID, done.ID)

	w := e.do(t, http.MethodGet, "/api/users/"+userID+"/tasks", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var all []map[string]any
	json.Unmarshal(w.Body.Bytes(), &all)
	if len(all) != 2 {
		t.Errorf("all = %d tasks", len(all))
	}

	w = e.do(t, http.MethodGet, "/api/users/"+userID+"/tasks?status=pending", token, "")
	var pending []map[string]any
	json.Unmarshal(w.Body.Bytes(), &pending)
	if len(pending) != 1 {
		t.Errorf("pending = %d tasks", len(pending))
	}
}

func TestUserScoping(t *testing.T) {
	e := newTestEnv(t)
	_, aliceToken := e.signup(t, "Alice", "alice@example.com")
	bobID, _ := e.signup(t, "Bob", "bob@example.com")

	w := e.do(t, http.MethodGet, "/api/users/"+bobID+"/tasks", aliceToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("cross-user status = %d, want 403", w.Code)
	}
	w = e.do(t, http.MethodPost, "/api/users/"+bobID+"/chat", aliceToken, `{"message":"hi"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("cross-user chat status = %d, want 403", w.Code)
	}
}

func TestChatFlow(t *testing.T) {
	e := newTestEnv(t)
	userID, token := e.signup(t, "Alice", "alice@example.com")

	w := e.do(t, http.MethodPost, "/api/users/"+userID+"/chat", token, `{"message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d: %s", w.Code, w.Body.String())
	}
	var first struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &first)
	if first.Message != "Sure thing." {
		t.Errorf("message = %q", first.Message)
	}
	if first.ConversationID == "" {
		t.Fatal("missing conversation id")
	}

	// A second message lands in the same conversation.
	w = e.do(t, http.MethodPost, "/api/users/"+userID+"/chat", token, `{"message":"again"}`)
	var second struct {
		ConversationID string `json:"conversation_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &second)
	if second.ConversationID != first.ConversationID {
		t.Errorf("conversation changed: %s != %s", second.ConversationID, first.ConversationID)
	}

	// Starting fresh produces a new conversation.
	w = e.do(t, http.MethodPost, "/api/users/"+userID+"/chat/new", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("chat/new status = %d: %s", w.Code, w.Body.String())
	}
	var fresh struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	json.Unmarshal(w.Body.Bytes(), &fresh)
	if fresh.ConversationID == first.ConversationID {
		t.Error("chat/new reused the old conversation")
	}
	if fresh.Message != "New conversation started." {
		t.Errorf("message = %q", fresh.Message)
	}

	if w := e.do(t, http.MethodPost, "/api/users/"+userID+"/chat", token, `{"message":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/users/"+userID+"/chat", "", `{"message":"hi"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated chat status = %d, want 401", w.Code)
	}
}
