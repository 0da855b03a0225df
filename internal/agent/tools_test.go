package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/tvural/taskchat/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRegistry(t *testing.T) (*Registry, *store.TaskStore) {
	t.Helper()

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
	return NewRegistry(tasks, log), tasks
}

func decodeEnvelope(t *testing.T, envelope string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(envelope), &out); err != nil {
		t.Fatalf("envelope is not JSON: %v\n%s", err, envelope)
	}
	return out
}

func TestRegistryDefinitions(t *testing.T) {
	r, _ := testRegistry(t)

	defs := r.Definitions()
	want := []string{"add_task", "list_tasks", "complete_task", "complete_task_by_name", "update_task", "delete_task"}
	if len(defs) != len(want) {
		t.Fatalf("got %d tools, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("defs[%d] = %q, want %q", i, defs[i].Name, name)
		}
		if defs[i].Parameters["type"] != "object" {
			t.Errorf("%s parameters missing object type", name)
		}
	}
}

func TestAddTaskTool(t *testing.T) {
	r, _ := testRegistry(t)

	out, input := r.Execute(context.Background(), "u1", "add_task", `{"title":"Buy milk","description":"2 liters"}`)
	env := decodeEnvelope(t, out)

	if env["error"] != nil {
		t.Fatalf("unexpected error: %v", env["error"])
	}
	if env["title"] != "Buy milk" {
		t.Errorf("title = %v", env["title"])
	}
	if env["status"] != "pending" {
		t.Errorf("status = %v", env["status"])
	}
	if env["message"] != "Task 'Buy milk' has been added successfully." {
		t.Errorf("message = %v", env["message"])
	}
	if input["title"] != "Buy milk" {
		t.Errorf("recorded input = %v", input)
	}
}

func TestAddTaskToolValidation(t *testing.T) {
	r, _ := testRegistry(t)

	out, _ := r.Execute(context.Background(), "u1", "add_task", `{"title":"  "}`)
	env := decodeEnvelope(t, out)
	if env["error"] != "title is required" {
		t.Errorf("error = %v", env["error"])
	}
}

func TestListTasksTool(t *testing.T) {
	r, tasks := testRegistry(t)
	c := context.Background()

	tasks.Create(c, "u1", "one", "")
	done, _ := tasks.Create(c, "u1", "two", "")
	tasks.SetCompleted(c, "u1", done.ID)

	out, _ := r.Execute(c, "u1", "list_tasks", `{"status":"pending"}`)
	env := decodeEnvelope(t, out)
	if env["count"] != float64(1) {
		t.Errorf("count = %v", env["count"])
	}
	if env["message"] != "Found 1 task(s)." {
		t.Errorf("message = %v", env["message"])
	}

	out, _ = r.Execute(c, "u1", "list_tasks", `{}`)
	env = decodeEnvelope(t, out)
	if env["count"] != float64(2) {
		t.Errorf("unfiltered count = %v", env["count"])
	}
}

func TestCompleteTaskTool(t *testing.T) {
	r, tasks := testRegistry(t)
	c := context.Background()

	tasks.Create(c, "u1", "finish report", "")

	out, _ := r.Execute(c, "u1", "complete_task", `{"task_id":1}`)
	env := decodeEnvelope(t, out)
	if env["status"] != "completed" {
		t.Errorf("status = %v", env["status"])
	}
	if env["message"] != "Task 'finish report' has been marked as complete!" {
		t.Errorf("message = %v", env["message"])
	}

	// Completing again succeeds but says so.
	out, _ = r.Execute(c, "u1", "complete_task", `{"task_id":1}`)
	env = decodeEnvelope(t, out)
	if env["message"] != "Task 'finish report' is already completed." {
		t.Errorf("repeat message = %v", env["message"])
	}

	out, _ = r.Execute(c, "u1", "complete_task", `{"task_id":42}`)
	env = decodeEnvelope(t, out)
	if env["error"] != "Task 42 not found" {
		t.Errorf("error = %v", env["error"])
	}
	if env["message"] != "Could not find task with ID 42." {
		t.Errorf("message = %v", env["message"])
	}
}

func TestCompleteTaskByNameTool(t *testing.T) {
	r, tasks := testRegistry(t)
	c := context.Background()

	tasks.Create(c, "u1", "Do homework", "")

	out, _ := r.Execute(c, "u1", "complete_task_by_name", `{"task_name":"homework"}`)
	env := decodeEnvelope(t, out)
	if env["message"] != "Task 'Do homework' has been marked as complete!" {
		t.Errorf("message = %v", env["message"])
	}

	out, _ = r.Execute(c, "u1", "complete_task_by_name", `{"task_name":"laundry"}`)
	env = decodeEnvelope(t, out)
	if env["error"] != "Task 'laundry' not found" {
		t.Errorf("error = %v", env["error"])
	}
	if !strings.Contains(env["message"].(string), "Use list_tasks") {
		t.Errorf("message = %v", env["message"])
	}
}

func TestUpdateTaskTool(t *testing.T) {
	r, tasks := testRegistry(t)
	c := context.Background()

	tasks.Create(c, "u1", "draft", "")

	out, _ := r.Execute(c, "u1", "update_task", `{"task_id":1,"title":"final"}`)
	env := decodeEnvelope(t, out)
	if env["title"] != "final" {
		t.Errorf("title = %v", env["title"])
	}
	if env["message"] != "Task 'final' has been updated." {
		t.Errorf("message = %v", env["message"])
	}

	// Neither field provided never reaches the store.
	out, _ = r.Execute(c, "u1", "update_task", `{"task_id":1}`)
	env = decodeEnvelope(t, out)
	if env["error"] != "title or description is required" {
		t.Errorf("no-field error = %v", env["error"])
	}
}

func TestDeleteTaskTool(t *testing.T) {
	r, tasks := testRegistry(t)
	c := context.Background()

	tasks.Create(c, "u1", "obsolete", "")

	out, _ := r.Execute(c, "u1", "delete_task", `{"task_id":1}`)
	env := decodeEnvelope(t, out)
	if env["deleted"] != true {
		t.Errorf("deleted = %v", env["deleted"])
	}
	if env["message"] != "Task 'obsolete' has been deleted." {
		t.Errorf("message = %v", env["message"])
	}

	out, _ = r.Execute(c, "u1", "delete_task", `{"task_id":1}`)
	env = decodeEnvelope(t, out)
	if env["error"] != "Task 1 not found" {
		t.Errorf("second delete error = %v", env["error"])
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r, _ := testRegistry(t)

	out, _ := r.Execute(context.Background(), "u1", "launch_rockets", `{}`)
	env := decodeEnvelope(t, out)
	if env["error"] == nil {
		t.Error("expected error envelope")
	}
}

func TestExecuteMalformedArguments(t *testing.T) {
	r, _ := testRegistry(t)

	out, _ := r.Execute(context.Background(), "u1", "add_task", `{"title":`)
	env := decodeEnvelope(t, out)
	if env["error"] == nil {
		t.Error("expected error envelope")
	}
}

func TestExecuteBindsAuthenticatedUser(t *testing.T) {
	r, tasks := testRegistry(t)
	c := context.Background()

	// The model claims to act for someone else; the bound user wins.
	out, _ := r.Execute(c, "alice", "add_task", `{"user_id":"mallory","title":"secret"}`)
	env := decodeEnvelope(t, out)
	if env["error"] != nil {
		t.Fatalf("unexpected error: %v", env["error"])
	}

	mine, _ := tasks.List(c, "alice", "all")
	theirs, _ := tasks.List(c, "mallory", "all")
	if len(mine) != 1 {
		t.Errorf("alice has %d tasks, want 1", len(mine))
	}
	if len(theirs) != 0 {
		t.Errorf("mallory has %d tasks, want 0", len(theirs))
	}
}

func TestIntArgForms(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want int64
		ok   bool
	}{
		{"float", map[string]any{"task_id": float64(7)}, 7, true},
		{"string", map[string]any{"task_id": "7"}, 7, true},
		{"quoted float", map[string]any{"task_id": "7.0"}, 7, true},
		{"missing", map[string]any{}, 0, false},
		{"garbage", map[string]any{"task_id": "seven"}, 0, false},
	}
	for _, tt := range tests {
		got, ok := intArg(tt.args, "task_id")
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: intArg = (%d, %v), want (%d, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
