// Package insight turns recent activity into a short coaching note by
// asking an OpenAI-compatible chat completions endpoint. The engine works
// fully without it; every failure degrades to ErrInsightUnavailable.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tendlog/tend/internal/domain"
	"github.com/tendlog/tend/internal/infra/cache"
	"github.com/tendlog/tend/internal/infra/metrics"
)

// Options configures the collaborator endpoint.
type Options struct {
	BaseURL  string        // e.g. http://localhost:11434/v1 or https://api.openai.com/v1
	APIKey   string        // Optional; local endpoints usually need none
	Model    string        // e.g. gpt-4o-mini
	Timeout  time.Duration // Per-request deadline
	CacheFor time.Duration // How long one user's insight stays fresh
}

// Snapshot is the activity context an insight is generated from.
type Snapshot struct {
	CurrentStreak int
	TotalXP       int64
	OverallLevel  int
	Reflections   []domain.Reflection
	TopSkills     []string
}

// Client calls the chat completions endpoint and caches one insight per
// user for the configured window.
type Client struct {
	opts  Options
	http  *http.Client
	cache *cache.TTL
	log   *logrus.Entry
}

// New creates the insight client. With an empty BaseURL the client is
// disabled and every request reports ErrInsightUnavailable.
func New(opts Options, log *logrus.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheFor <= 0 {
		opts.CacheFor = time.Hour
	}
	return &Client{
		opts:  opts,
		http:  &http.Client{Timeout: opts.Timeout},
		cache: cache.New(opts.CacheFor, nil),
		log:   log.WithField("component", "insight"),
	}
}

// Enabled reports whether a collaborator endpoint is configured.
func (c *Client) Enabled() bool { return c.opts.BaseURL != "" }

// ─── Wire Types (OpenAI chat completions) ───────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ─── Generation ─────────────────────────────────────────────────────────────

// Generate returns a short insight for the user, serving a cached one
// when fresh. All transport and decode failures surface as
// ErrInsightUnavailable with the cause wrapped alongside.
func (c *Client) Generate(ctx context.Context, userID string, snap Snapshot) (string, error) {
	if !c.Enabled() {
		metrics.InsightRequests.WithLabelValues("disabled").Inc()
		return "", domain.ErrInsightUnavailable
	}

	key := "insight:" + userID
	if cached, ok := c.cache.Get(key); ok {
		metrics.InsightRequests.WithLabelValues("cache_hit").Inc()
		return cached, nil
	}

	text, err := c.complete(ctx, buildPrompt(snap))
	if err != nil {
		metrics.InsightRequests.WithLabelValues("error").Inc()
		c.log.WithError(err).Warn("insight generation failed")
		return "", fmt.Errorf("%w: %v", domain.ErrInsightUnavailable, err)
	}

	c.cache.Set(key, text)
	metrics.InsightRequests.WithLabelValues("generated").Inc()
	return text, nil
}

// Invalidate discards the cached insight so the next request regenerates.
func (c *Client) Invalidate(userID string) {
	c.cache.Invalidate("insight:" + userID)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.opts.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("collaborator error: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("collaborator status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("blank completion")
	}
	return text, nil
}

const systemPrompt = "You are a warm, concise habit coach inside a personal " +
	"growth tracker. Given a user's recent reflections, streak, and skill " +
	"activity, reply with one encouraging observation and one concrete " +
	"suggestion. Stay under 80 words. Never invent activity the user did " +
	"not report."

// buildPrompt flattens the snapshot into the user message. Reflections
// are clipped so a long journal cannot blow the context window.
func buildPrompt(snap Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current streak: %d days. Total XP: %d (level %d).\n",
		snap.CurrentStreak, snap.TotalXP, snap.OverallLevel)
	if len(snap.TopSkills) > 0 {
		fmt.Fprintf(&b, "Most active skills: %s.\n", strings.Join(snap.TopSkills, ", "))
	}
	if len(snap.Reflections) > 0 {
		b.WriteString("Recent reflections:\n")
		for _, r := range snap.Reflections {
			content := r.Content
			if len(content) > 400 {
				content = content[:400] + "…"
			}
			fmt.Fprintf(&b, "- [%s] (%s) %s\n",
				r.CreatedAt.Format("2006-01-02"), strings.Join(r.Domains, ", "), content)
		}
	} else {
		b.WriteString("No reflections yet.\n")
	}
	return b.String()
}
