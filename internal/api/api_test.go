package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/domain"
	"github.com/tendlog/tend/internal/infra/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.UpsertSubskill(domain.Subskill{ID: "writing", Name: "Writing", Category: "craft"}); err != nil {
		t.Fatalf("seed subskill: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc := progression.NewService(db, domain.DefaultAccrualRules(), nil, progression.DefaultQuests())
	return NewServer(svc, nil, log)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLogSignalEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/signals", `{"subskill_id":"writing","note":"morning pages"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var receipt progression.SignalReceipt
	decode(t, rec, &receipt)
	if receipt.Award.Amount != 10 {
		t.Errorf("expected 10 XP, got %d", receipt.Award.Amount)
	}
	if receipt.Signal.ID == "" {
		t.Error("expected a signal id")
	}
	if receipt.Streak.CurrentStreak != 1 {
		t.Errorf("expected streak 1, got %d", receipt.Streak.CurrentStreak)
	}
}

func TestLogSignalEndpoint_UnknownSubskill(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/signals", `{"subskill_id":"ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmitReflectionEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/reflections", `{"content":"good day","domains":["mind"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var receipt progression.ReflectionReceipt
	decode(t, rec, &receipt)
	if receipt.Award.Amount != 20 {
		t.Errorf("expected 20 XP, got %d", receipt.Award.Amount)
	}
	// The first reflection clears the daily-pause quest.
	found := false
	for _, q := range receipt.CompletedQuests {
		if q.QuestID == "daily-pause" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected daily-pause completion, got %+v", receipt.CompletedQuests)
	}
}

func TestSubmitReflectionEndpoint_Validation(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/reflections", `{"content":"","domains":["mind"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty content: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/reflections", `{"content":"x","domains":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no domains: expected 400, got %d", rec.Code)
	}
}

func TestSubskillEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/subskills", `{"id":"running","name":"Running","category":"health"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/subskills", "")
	var out struct {
		Subskills []domain.Subskill `json:"subskills"`
	}
	decode(t, rec, &out)
	if len(out.Subskills) != 2 {
		t.Errorf("expected 2 subskills, got %d", len(out.Subskills))
	}
}

func TestProgressEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	doJSON(t, h, http.MethodPost, "/api/signals", `{"subskill_id":"writing"}`)

	rec := doJSON(t, h, http.MethodGet, "/api/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view progression.ProgressView
	decode(t, rec, &view)
	if view.User.TotalXP == 0 {
		t.Error("expected nonzero total XP after a signal")
	}
	if view.OverallLevel != 1 {
		t.Errorf("expected overall level 1, got %d", view.OverallLevel)
	}
	if len(view.Skills) != 1 || view.Skills[0].Level.Name != "Novice" {
		t.Errorf("unexpected skills: %+v", view.Skills)
	}
}

func TestQuestsEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/quests", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Quests []domain.QuestProgress `json:"quests"`
	}
	decode(t, rec, &out)
	if len(out.Quests) != len(progression.DefaultQuests()) {
		t.Errorf("expected the stock quest board, got %d quests", len(out.Quests))
	}
}

func TestTimelineEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	doJSON(t, h, http.MethodPost, "/api/signals", `{"subskill_id":"writing"}`)

	rec := doJSON(t, h, http.MethodGet, "/api/timeline?days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Days    []domain.TimelineDay   `json:"days"`
		Summary domain.TimelineSummary `json:"summary"`
	}
	decode(t, rec, &out)
	if len(out.Days) != 7 {
		t.Errorf("expected 7 buckets, got %d", len(out.Days))
	}
	if out.Summary.TotalXP == 0 {
		t.Error("expected nonzero range total")
	}
}

func TestActivityEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	doJSON(t, h, http.MethodPost, "/api/signals", `{"subskill_id":"writing"}`)

	rec := doJSON(t, h, http.MethodGet, "/api/activity?days=14", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Days    []domain.ActivityDay   `json:"days"`
		Summary domain.ActivitySummary `json:"summary"`
	}
	decode(t, rec, &out)
	if len(out.Days) != 14 {
		t.Errorf("expected 14 buckets, got %d", len(out.Days))
	}
	if out.Summary.ByDomain["craft"] != 1 {
		t.Errorf("expected craft=1, got %+v", out.Summary.ByDomain)
	}
}

func TestInsightEndpoint_Unconfigured(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/insight", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a collaborator, got %d", rec.Code)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	h := newTestServer(t).Handler()

	doJSON(t, h, http.MethodPost, "/api/signals?user=alice", `{"subskill_id":"writing"}`)

	rec := doJSON(t, h, http.MethodGet, "/api/progress?user=bob", "")
	var view progression.ProgressView
	decode(t, rec, &view)
	if view.User.TotalXP != 0 {
		t.Errorf("bob inherited alice's XP: %d", view.User.TotalXP)
	}
}
