package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/headnod/internal/questions"
	"github.com/ayusman/headnod/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func seedSession(t *testing.T, s *store.Store, id string, started time.Time, answers ...questions.Choice) {
	t.Helper()

	if err := s.Sessions().Create(&store.Session{ID: id, StartedAt: started}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	for i, c := range answers {
		a := &store.Answer{
			SessionID:  id,
			NodeID:     "node",
			Prompt:     "prompt",
			Choice:     c,
			Terminal:   i == len(answers)-1,
			AnsweredAt: started.Add(time.Duration(i+1) * time.Second),
		}
		if err := s.Answers().Create(a); err != nil {
			t.Fatalf("failed to create answer: %v", err)
		}
	}
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedSession(t, s, "first", base, questions.ChoiceYes)
	seedSession(t, s, "second", base.Add(time.Hour), questions.ChoiceNo, questions.ChoiceYes)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(response.Sessions))
	}
	if response.Sessions[0].ID != "second" || response.Sessions[0].Answers != 2 {
		t.Errorf("first listed session = %+v, want second with 2 answers", response.Sessions[0])
	}
}

func TestSessionHandler_List_Limit(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		seedSession(t, s, id, base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "limit 2", query: "?limit=2", wantStatus: http.StatusOK, wantCount: 2},
		{name: "no limit", query: "", wantStatus: http.StatusOK, wantCount: 3},
		{name: "zero", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "garbage", query: "?limit=many", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var response listSessionsResponse
			json.NewDecoder(rec.Body).Decode(&response)
			if len(response.Sessions) != tt.wantCount {
				t.Errorf("expected %d sessions, got %d", tt.wantCount, len(response.Sessions))
			}
		})
	}
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSessionHandler(s)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedSession(t, s, "s-1", base, questions.ChoiceYes, questions.ChoiceNo)
	if err := s.Sessions().End("s-1", store.SessionFinished, base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		ID         string           `json:"id"`
		Status     string           `json:"status"`
		EndedAt    string           `json:"ended_at"`
		AnswerList []answerResponse `json:"answer_list"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "finished" || response.EndedAt == "" {
		t.Errorf("unexpected session state %+v", response)
	}
	if len(response.AnswerList) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(response.AnswerList))
	}
	if response.AnswerList[0].Choice != "yes" || !response.AnswerList[1].Terminal {
		t.Errorf("unexpected answers %+v", response.AnswerList)
	}
}

func TestSessionHandler_Errors(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "unknown id", method: http.MethodGet, path: "/api/sessions/nope", wantStatus: http.StatusNotFound},
		{name: "nested path", method: http.MethodGet, path: "/api/sessions/a/b", wantStatus: http.StatusNotFound},
		{name: "post", method: http.MethodPost, path: "/api/sessions", wantStatus: http.StatusMethodNotAllowed},
		{name: "delete", method: http.MethodDelete, path: "/api/sessions/x", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

type staticTree struct{ root *questions.Node }

func (s staticTree) Tree() *questions.Node { return s.root }

func TestQuestionHandler(t *testing.T) {
	t.Run("serves the tree", func(t *testing.T) {
		handler := NewQuestionHandler(staticTree{root: questions.DefaultTree()})

		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response questionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Count != questions.Count(questions.DefaultTree()) {
			t.Errorf("count = %d", response.Count)
		}
		if response.Root == nil || response.Root.ID != "coffee" {
			t.Errorf("unexpected root %+v", response.Root)
		}
	})

	t.Run("no tree", func(t *testing.T) {
		handler := NewQuestionHandler(staticTree{})

		req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

type fakeRestarter struct {
	id    string
	err   error
	calls int
}

func (f *fakeRestarter) Restart() (string, error) {
	f.calls++
	return f.id, f.err
}

func TestRestartHandler(t *testing.T) {
	t.Run("restarts", func(t *testing.T) {
		r := &fakeRestarter{id: "new-session"}
		handler := NewRestartHandler(r)

		req := httptest.NewRequest(http.MethodPost, "/api/session/restart", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var response restartResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if response.SessionID != "new-session" || r.calls != 1 {
			t.Errorf("response = %+v, calls = %d", response, r.calls)
		}
	})

	t.Run("paused", func(t *testing.T) {
		handler := NewRestartHandler(&fakeRestarter{err: errors.New("detection is paused")})

		req := httptest.NewRequest(http.MethodPost, "/api/session/restart", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("get not allowed", func(t *testing.T) {
		r := &fakeRestarter{}
		handler := NewRestartHandler(r)

		req := httptest.NewRequest(http.MethodGet, "/api/session/restart", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed || r.calls != 0 {
			t.Errorf("expected 405 without restart, got %d (calls %d)", rec.Code, r.calls)
		}
	})
}
