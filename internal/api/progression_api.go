package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/tendlog/tend/internal/app/insight"
	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/domain"
)

// defaultUser identifies the local profile when no ?user= is given.
const defaultUser = "default"

func userFrom(r *http.Request) string {
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return defaultUser
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// rangeFrom reads ?from=/=to= dates, falling back to the trailing
// `days`-day window ending today.
func rangeFrom(r *http.Request, fallbackDays int) progression.DateRange {
	now := time.Now()
	dr := progression.DateRange{
		Start: now.AddDate(0, 0, -(intParam(r, "days", fallbackDays) - 1)),
		End:   now,
	}
	if from, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("from"), time.Local); err == nil {
		dr.Start = from
	}
	if to, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("to"), time.Local); err == nil {
		dr.End = to
	}
	return dr
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSubskillNotFound),
		errors.Is(err, domain.ErrQuestNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyReflection),
		errors.Is(err, domain.ErrNoDomains),
		errors.Is(err, domain.ErrUnknownUser),
		errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsightUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// --- POST /api/signals ---

type logSignalRequest struct {
	SubskillID  string `json:"subskill_id"`
	Note        string `json:"note"`
	ArtifactURL string `json:"artifact_url"`
}

func (s *Server) handleLogSignal(w http.ResponseWriter, r *http.Request) {
	var req logSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := s.svc.LogSignal(userFrom(r), req.SubskillID, req.Note, req.ArtifactURL)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// --- POST /api/reflections ---

type submitReflectionRequest struct {
	Content string   `json:"content"`
	Domains []string `json:"domains"`
}

func (s *Server) handleSubmitReflection(w http.ResponseWriter, r *http.Request) {
	var req submitReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := s.svc.SubmitReflection(userFrom(r), req.Content, req.Domains)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if s.insight != nil {
		// A new reflection changes the coaching context.
		s.insight.Invalidate(userFrom(r))
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// --- /api/subskills ---

func (s *Server) handleListSubskills(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.Subskills()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subskills": subs})
}

func (s *Server) handleUpsertSubskill(w http.ResponseWriter, r *http.Request) {
	var sub domain.Subskill
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.svc.UpsertSubskill(sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// --- GET /api/progress ---

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Progress(userFrom(r))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- GET /api/streak ---

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Progress(userFrom(r))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_streak": view.User.CurrentStreak,
		"longest_streak": view.User.LongestStreak,
		"last_log_date":  view.User.LastLogDate,
	})
}

// --- GET /api/quests ---

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.QuestBoard(userFrom(r), time.Now())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quests": board})
}

// --- GET /api/timeline ---

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	days, summary, err := s.svc.Timeline(userFrom(r), rangeFrom(r, 7))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"summary": summary,
	})
}

// --- GET /api/activity ---

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	days, summary, err := s.svc.Activity(userFrom(r), rangeFrom(r, 30))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"summary": summary,
	})
}

// --- GET /api/history ---

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.History(userFrom(r), intParam(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// --- GET /api/insight ---

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	if s.insight == nil || !s.insight.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "no insight collaborator configured")
		return
	}
	userID := userFrom(r)

	view, err := s.svc.Progress(userID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	reflections, err := s.svc.RecentReflections(userID, 5)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	text, err := s.insight.Generate(r.Context(), userID, insight.Snapshot{
		CurrentStreak: view.User.CurrentStreak,
		TotalXP:       view.User.TotalXP,
		OverallLevel:  view.OverallLevel,
		Reflections:   reflections,
		TopSkills:     topSkillNames(view.Skills, 3),
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insight": text})
}

// topSkillNames returns up to n skill names ordered by earned XP.
func topSkillNames(skills []progression.SkillView, n int) []string {
	sorted := make([]progression.SkillView, len(skills))
	copy(sorted, skills)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Progress.XPEarned > sorted[j].Progress.XPEarned
	})
	var names []string
	for _, sv := range sorted {
		if len(names) == n {
			break
		}
		name := sv.Subskill.Name
		if name == "" {
			name = sv.Progress.SubskillID
		}
		names = append(names, name)
	}
	return names
}
