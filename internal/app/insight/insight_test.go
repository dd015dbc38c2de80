package insight_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tendlog/tend/internal/app/insight"
	"github.com/tendlog/tend/internal/domain"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func completionServer(t *testing.T, reply string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestGenerate_ReturnsCompletion(t *testing.T) {
	calls := 0
	srv := completionServer(t, "Nice three-day streak. Try a short reflection tonight.", &calls)
	defer srv.Close()

	c := insight.New(insight.Options{BaseURL: srv.URL + "/v1", Model: "test"}, quietLogger())
	got, err := c.Generate(context.Background(), "u1", insight.Snapshot{CurrentStreak: 3})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(got, "streak") {
		t.Errorf("unexpected insight %q", got)
	}
}

func TestGenerate_PromptCarriesSnapshot(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		seen = req.Messages[len(req.Messages)-1].Content
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := insight.New(insight.Options{BaseURL: srv.URL, Model: "test"}, quietLogger())
	snap := insight.Snapshot{
		CurrentStreak: 7,
		TotalXP:       430,
		OverallLevel:  1,
		TopSkills:     []string{"writing"},
		Reflections: []domain.Reflection{
			{Content: "shipped the draft", Domains: []string{"craft"}, CreatedAt: time.Now()},
		},
	}
	if _, err := c.Generate(context.Background(), "u1", snap); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{"7 days", "430", "writing", "shipped the draft"} {
		if !strings.Contains(seen, want) {
			t.Errorf("prompt missing %q:\n%s", want, seen)
		}
	}
}

func TestGenerate_CachesPerUser(t *testing.T) {
	calls := 0
	srv := completionServer(t, "steady progress", &calls)
	defer srv.Close()

	c := insight.New(insight.Options{BaseURL: srv.URL + "/v1", Model: "test"}, quietLogger())

	for i := 0; i < 3; i++ {
		if _, err := c.Generate(context.Background(), "u1", insight.Snapshot{}); err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call for a cached user, got %d", calls)
	}

	if _, err := c.Generate(context.Background(), "u2", insight.Snapshot{}); err != nil {
		t.Fatalf("generate u2: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a fresh call for a second user, got %d", calls)
	}

	c.Invalidate("u1")
	if _, err := c.Generate(context.Background(), "u1", insight.Snapshot{}); err != nil {
		t.Fatalf("generate after invalidate: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected a fresh call after invalidation, got %d", calls)
	}
}

func TestGenerate_DisabledWithoutEndpoint(t *testing.T) {
	c := insight.New(insight.Options{}, quietLogger())
	_, err := c.Generate(context.Background(), "u1", insight.Snapshot{})
	if !errors.Is(err, domain.ErrInsightUnavailable) {
		t.Errorf("expected ErrInsightUnavailable, got %v", err)
	}
}

func TestGenerate_UpstreamErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model overloaded"},
		})
	}))
	defer srv.Close()

	c := insight.New(insight.Options{BaseURL: srv.URL, Model: "test"}, quietLogger())
	_, err := c.Generate(context.Background(), "u1", insight.Snapshot{})
	if !errors.Is(err, domain.ErrInsightUnavailable) {
		t.Errorf("expected ErrInsightUnavailable, got %v", err)
	}
}

func TestGenerate_UnreachableEndpointDegrades(t *testing.T) {
	c := insight.New(insight.Options{BaseURL: "http://127.0.0.1:1", Model: "test", Timeout: time.Second}, quietLogger())
	_, err := c.Generate(context.Background(), "u1", insight.Snapshot{})
	if !errors.Is(err, domain.ErrInsightUnavailable) {
		t.Errorf("expected ErrInsightUnavailable, got %v", err)
	}
}
