package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chronicle/internal/service"
)

type mockRecurring struct {
	calls  []time.Time
	result service.RecurrenceSummary
	err    error
}

func (m *mockRecurring) ProcessRecurringTasks(ctx context.Context, today time.Time) (service.RecurrenceSummary, error) {
	m.calls = append(m.calls, today)
	return m.result, m.err
}

type mockReminders struct {
	calls  int
	result service.ReminderSummary
	err    error
}

func (m *mockReminders) Dispatch(ctx context.Context, now time.Time) (service.ReminderSummary, error) {
	m.calls++
	return m.result, m.err
}

var fixedNow = time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)

func newTestServer(secret string, rec *mockRecurring, rem *mockReminders) *Server {
	return NewServer(rec, rem, Options{
		CronSecret: secret,
		Now:        func() time.Time { return fixedNow },
		Logger:     zerolog.Nop(),
	})
}

func do(t *testing.T, s *Server, method, path, auth string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body %q: %v", w.Body.String(), err)
		}
	}
	return w, body
}

func TestRecurringTasksSuccess(t *testing.T) {
	rec := &mockRecurring{result: service.RecurrenceSummary{Scanned: 4, Created: 2}}
	s := newTestServer("s3cret", rec, &mockReminders{})

	w, body := do(t, s, http.MethodPost, "/jobs/recurring-tasks", "Bearer s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	if body["success"] != true || body["processed"] != float64(4) || body["created"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(rec.calls) != 1 || !rec.calls[0].Equal(fixedNow) {
		t.Fatalf("engine calls = %v", rec.calls)
	}
}

func TestRecurringTasksUnauthorized(t *testing.T) {
	rec := &mockRecurring{}
	s := newTestServer("s3cret", rec, &mockReminders{})

	for _, auth := range []string{"", "Bearer wrong", "Basic s3cret", "s3cret"} {
		w, body := do(t, s, http.MethodPost, "/jobs/recurring-tasks", auth)
		if w.Code != http.StatusUnauthorized || body["error"] != "Unauthorized" {
			t.Errorf("auth %q: status = %d, body %v", auth, w.Code, body)
		}
	}
	if len(rec.calls) != 0 {
		t.Fatal("engine must not run without authorization")
	}
}

func TestNoSecretLeavesEndpointsOpen(t *testing.T) {
	rec := &mockRecurring{}
	s := newTestServer("", rec, &mockReminders{})

	w, _ := do(t, s, http.MethodPost, "/jobs/recurring-tasks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRecurringTasksFailureIsGeneric(t *testing.T) {
	rec := &mockRecurring{err: errors.New("pq: connection reset")}
	s := newTestServer("", rec, &mockReminders{})

	w, body := do(t, s, http.MethodPost, "/jobs/recurring-tasks", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body["error"] != "Task processing failed. Please try again." {
		t.Fatalf("error body leaks details: %v", body)
	}
}

func TestPreflightSkipsAuth(t *testing.T) {
	s := newTestServer("s3cret", &mockRecurring{}, &mockReminders{})

	w, _ := do(t, s, http.MethodOptions, "/jobs/daily-reminder", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
}

func TestDailyReminder(t *testing.T) {
	rem := &mockReminders{result: service.ReminderSummary{Checked: 3, Due: 2, Sent: 2}}
	s := newTestServer("s3cret", &mockRecurring{}, rem)

	w, body := do(t, s, http.MethodPost, "/jobs/daily-reminder", "bearer s3cret")
	if w.Code != http.StatusOK || body["sent"] != float64(2) || body["success"] != true {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}

	rem.err = errors.New("down")
	w, _ = do(t, s, http.MethodPost, "/jobs/daily-reminder", "Bearer s3cret")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer("s3cret", &mockRecurring{}, &mockReminders{})

	w, body := do(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
}
