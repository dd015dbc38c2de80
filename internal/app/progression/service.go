package progression

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendlog/tend/internal/domain"
	"github.com/tendlog/tend/internal/infra/metrics"
	"github.com/tendlog/tend/internal/infra/sqlite"
)

// bossRewardXP is the flat reward for clearing a skill's level boundary.
const bossRewardXP = 25

// Service wires the pure progression rules to storage. One action runs
// read → compute → append; a per-user lock held for the whole sequence
// keeps the cap check and the append atomic, so two concurrent actions
// for the same user can never both read a stale day total.
type Service struct {
	db     *sqlite.DB
	rules  domain.AccrualRules
	levels []domain.LevelThreshold
	quests []domain.QuestDef

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates the progression service. Zero-value rules, levels,
// or quests fall back to the stock configuration.
func NewService(db *sqlite.DB, rules domain.AccrualRules, levels []domain.LevelThreshold, quests []domain.QuestDef) *Service {
	if rules.DailyCap == 0 && len(rules.Ladder) == 0 {
		rules = domain.DefaultAccrualRules()
	}
	if len(levels) == 0 {
		levels = DefaultLevelTable()
	}
	if quests == nil {
		quests = DefaultQuests()
	}
	return &Service{
		db:     db,
		rules:  rules,
		levels: levels,
		quests: quests,
		locks:  make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing all accrual sequences for one
// user. Locks are never released from the map; the user set is small.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Rules returns the active accrual configuration.
func (s *Service) Rules() domain.AccrualRules { return s.rules }

// LevelTable returns the active skill-level thresholds.
func (s *Service) LevelTable() []domain.LevelThreshold { return s.levels }

// ─── Write Path ─────────────────────────────────────────────────────────────

// SignalReceipt reports everything one logged signal set in motion.
type SignalReceipt struct {
	Signal          domain.Signal          `json:"signal"`
	Award           Award                  `json:"award"`
	Streak          StreakResult           `json:"streak"`
	StreakBonus     int64                  `json:"streak_bonus"`
	VarietyBonus    int64                  `json:"variety_bonus"`
	ArtifactBonus   int64                  `json:"artifact_bonus"`
	CompletedQuests []domain.QuestProgress `json:"completed_quests,omitempty"`
	TotalXP         int64                  `json:"total_xp"`
}

// LogSignal records a signal at the current time.
func (s *Service) LogSignal(userID, subskillID, note, artifactURL string) (*SignalReceipt, error) {
	return s.LogSignalAt(userID, subskillID, note, artifactURL, time.Now())
}

// LogSignalAt records a signal: accrual with diminishing returns and the
// daily cap, ledger append (even for a zero award), streak advance,
// variety and artifact bonuses, then quest re-evaluation.
func (s *Service) LogSignalAt(userID, subskillID, note, artifactURL string, now time.Time) (*SignalReceipt, error) {
	if userID == "" {
		return nil, domain.ErrUnknownUser
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sub, err := s.db.GetSubskill(subskillID)
	if err != nil {
		return nil, fmt.Errorf("lookup subskill: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubskillNotFound, subskillID)
	}

	occurrence, err := s.db.SignalAwardCountOnDay(userID, subskillID, now)
	if err != nil {
		return nil, fmt.Errorf("count today's awards: %w", err)
	}
	running, err := s.db.XPOnDay(userID, now)
	if err != nil {
		return nil, fmt.Errorf("sum today's xp: %w", err)
	}

	sig := domain.Signal{
		ID:          uuid.New().String(),
		UserID:      userID,
		SubskillID:  subskillID,
		Note:        note,
		ArtifactURL: artifactURL,
		CreatedAt:   now,
	}
	if err := s.db.InsertSignal(sig); err != nil {
		return nil, fmt.Errorf("insert signal: %w", err)
	}
	metrics.SignalsLogged.Inc()

	receipt := &SignalReceipt{Signal: sig}

	// A capped-to-zero award still leaves a ledger entry so that
	// history and "logged" UI state stay accurate.
	award, err := s.appendCapped(userID, domain.SourceSignal, subskillID, "", s.rules.SignalBaseXP, occurrence, &running, now)
	if err != nil {
		return nil, err
	}
	receipt.Award = award
	if err := s.db.BumpSubskillProgress(userID, subskillID, award.Amount, now); err != nil {
		return nil, fmt.Errorf("bump subskill progress: %w", err)
	}

	receipt.Streak, receipt.StreakBonus, err = s.advanceStreak(userID, now, &running)
	if err != nil {
		return nil, err
	}

	receipt.VarietyBonus, err = s.varietyBonus(userID, now, &running)
	if err != nil {
		return nil, err
	}
	if artifactURL != "" && s.rules.ArtifactBonusXP > 0 {
		a, err := s.appendCapped(userID, domain.SourceArtifactBonus, subskillID, "", s.rules.ArtifactBonusXP, 0, &running, now)
		if err != nil {
			return nil, err
		}
		receipt.ArtifactBonus = a.Amount
	}

	board, err := s.evaluateQuestsAt(userID, now, &running)
	if err != nil {
		return nil, err
	}
	receipt.CompletedQuests = newlyCompleted(board)

	receipt.TotalXP, err = s.syncTotal(userID)
	return receipt, err
}

// ReflectionReceipt reports everything one reflection set in motion.
type ReflectionReceipt struct {
	Reflection      domain.Reflection      `json:"reflection"`
	Award           Award                  `json:"award"`
	Streak          StreakResult           `json:"streak"`
	StreakBonus     int64                  `json:"streak_bonus"`
	CompletedQuests []domain.QuestProgress `json:"completed_quests,omitempty"`
	TotalXP         int64                  `json:"total_xp"`
}

// SubmitReflection records a reflection at the current time.
func (s *Service) SubmitReflection(userID, content string, domains []string) (*ReflectionReceipt, error) {
	return s.SubmitReflectionAt(userID, content, domains, time.Now())
}

// SubmitReflectionAt records a reflection. Reflections accrue on their
// own track: no per-subskill diminishing returns, but the daily cap
// still applies jointly with every other source.
func (s *Service) SubmitReflectionAt(userID, content string, domains []string, now time.Time) (*ReflectionReceipt, error) {
	if userID == "" {
		return nil, domain.ErrUnknownUser
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyReflection
	}
	if len(domains) == 0 {
		return nil, domain.ErrNoDomains
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	running, err := s.db.XPOnDay(userID, now)
	if err != nil {
		return nil, fmt.Errorf("sum today's xp: %w", err)
	}

	ref := domain.Reflection{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		Domains:   domains,
		CreatedAt: now,
	}
	if err := s.db.InsertReflection(ref); err != nil {
		return nil, fmt.Errorf("insert reflection: %w", err)
	}
	metrics.ReflectionsLogged.Inc()

	receipt := &ReflectionReceipt{Reflection: ref}

	award, err := s.appendCapped(userID, domain.SourceReflection, "", "", s.rules.ReflectionBaseXP, 0, &running, now)
	if err != nil {
		return nil, err
	}
	receipt.Award = award

	receipt.Streak, receipt.StreakBonus, err = s.advanceStreak(userID, now, &running)
	if err != nil {
		return nil, err
	}

	board, err := s.evaluateQuestsAt(userID, now, &running)
	if err != nil {
		return nil, err
	}
	receipt.CompletedQuests = newlyCompleted(board)

	receipt.TotalXP, err = s.syncTotal(userID)
	return receipt, err
}

// AdvanceStreakFor applies a qualifying activity to the user's streak
// without logging an event. The bonus entry is subject to the daily cap
// like every other source.
func (s *Service) AdvanceStreakFor(userID string, today time.Time) (StreakResult, error) {
	if userID == "" {
		return StreakResult{}, domain.ErrUnknownUser
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	running, err := s.db.XPOnDay(userID, today)
	if err != nil {
		return StreakResult{}, err
	}
	res, granted, err := s.advanceStreak(userID, today, &running)
	if err != nil {
		return res, err
	}
	res.BonusXP = granted
	_, err = s.syncTotal(userID)
	return res, err
}

// ─── Read Path ──────────────────────────────────────────────────────────────

// SkillView pairs a subskill's progress with its derived table level.
type SkillView struct {
	Subskill domain.Subskill         `json:"subskill"`
	Progress domain.SubskillProgress `json:"progress"`
	Level    domain.SkillLevel       `json:"level"`
}

// ProgressView is the profile snapshot: totals, streaks, the coarse
// overall level, and per-skill table levels.
type ProgressView struct {
	User         domain.UserProgress `json:"user"`
	OverallLevel int                 `json:"overall_level"`
	Skills       []SkillView         `json:"skills"`
}

// Progress assembles the profile view. Totals come from the ledger, the
// source of truth, not from the cached snapshot.
func (s *Service) Progress(userID string) (*ProgressView, error) {
	if userID == "" {
		return nil, domain.ErrUnknownUser
	}
	p, err := s.db.GetUserProgress(userID)
	if err != nil {
		return nil, err
	}
	p.TotalXP, err = s.db.TotalXP(userID)
	if err != nil {
		return nil, err
	}

	view := &ProgressView{
		User:         p,
		OverallLevel: OverallLevel(p.TotalXP, s.rules.OverallLevelDivisor),
	}

	rows, err := s.db.ListSubskillProgress(userID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		level, err := LevelFor(row.XPEarned, s.levels)
		if err != nil {
			return nil, err
		}
		sv := SkillView{Progress: row, Level: level}
		if sub, err := s.db.GetSubskill(row.SubskillID); err == nil && sub != nil {
			sv.Subskill = *sub
		}
		view.Skills = append(view.Skills, sv)
	}
	return view, nil
}

// Timeline reduces the user's ledger over the range into daily buckets.
func (s *Service) Timeline(userID string, r DateRange) ([]domain.TimelineDay, domain.TimelineSummary, error) {
	from := domain.DayOf(r.Start)
	to := domain.DayOf(r.End).AddDate(0, 0, 1)
	entries, err := s.db.EntriesInRange(userID, from, to)
	if err != nil {
		return nil, domain.TimelineSummary{}, err
	}
	return BuildTimeline(entries, r)
}

// Activity reduces the user's signals and reflections over the range
// into daily heatmap buckets.
func (s *Service) Activity(userID string, r DateRange) ([]domain.ActivityDay, domain.ActivitySummary, error) {
	from := domain.DayOf(r.Start)
	to := domain.DayOf(r.End).AddDate(0, 0, 1)
	signals, err := s.db.SignalsInRange(userID, from, to)
	if err != nil {
		return nil, domain.ActivitySummary{}, err
	}
	reflections, err := s.db.ReflectionsInRange(userID, from, to)
	if err != nil {
		return nil, domain.ActivitySummary{}, err
	}
	cats, err := s.db.SubskillCategories()
	if err != nil {
		return nil, domain.ActivitySummary{}, err
	}
	return BuildActivity(signals, reflections, r, cats)
}

// QuestBoard evaluates every quest instance active at now. Completion
// transitions observed here award XP too — the persisted marker keeps
// any repeat evaluation a no-op.
func (s *Service) QuestBoard(userID string, now time.Time) ([]domain.QuestProgress, error) {
	if userID == "" {
		return nil, domain.ErrUnknownUser
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	running, err := s.db.XPOnDay(userID, now)
	if err != nil {
		return nil, err
	}
	board, err := s.evaluateQuestsAt(userID, now, &running)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncTotal(userID); err != nil {
		return nil, err
	}
	return board, nil
}

// History returns the newest ledger entries for display.
func (s *Service) History(userID string, limit int) ([]domain.LedgerEntry, error) {
	return s.db.RecentEntries(userID, limit)
}

// RecentReflections returns the newest reflections, newest first.
func (s *Service) RecentReflections(userID string, limit int) ([]domain.Reflection, error) {
	return s.db.RecentReflections(userID, limit)
}

// UpsertSubskill registers or renames a subskill.
func (s *Service) UpsertSubskill(sub domain.Subskill) error {
	if strings.TrimSpace(sub.ID) == "" || strings.TrimSpace(sub.Name) == "" {
		return fmt.Errorf("subskill id and name are required")
	}
	return s.db.UpsertSubskill(sub)
}

// Subskills lists every registered subskill.
func (s *Service) Subskills() ([]domain.Subskill, error) {
	return s.db.ListSubskills()
}

// ─── Internals ──────────────────────────────────────────────────────────────

// appendCapped runs one award through the accrual rules at the current
// running total, appends the ledger entry, and advances the total.
func (s *Service) appendCapped(userID string, source domain.XPSource, subskillID, questKey string, base int64, occurrence int, running *int64, at time.Time) (Award, error) {
	award := ComputeAward(base, occurrence, *running, s.rules)
	_, err := s.db.AppendEntry(domain.LedgerEntry{
		UserID:     userID,
		Amount:     award.Amount,
		Source:     source,
		SubskillID: subskillID,
		QuestKey:   questKey,
		CreatedAt:  at,
	})
	if err != nil {
		return award, fmt.Errorf("append %s entry: %w", source, err)
	}
	*running += award.Amount
	metrics.XPAwarded.WithLabelValues(string(source)).Add(float64(award.Amount))
	if award.Capped {
		metrics.CapTruncations.Inc()
	}
	return award, nil
}

func (s *Service) advanceStreak(userID string, now time.Time, running *int64) (StreakResult, int64, error) {
	p, err := s.db.GetUserProgress(userID)
	if err != nil {
		return StreakResult{}, 0, err
	}
	p, res := AdvanceStreak(p, now, s.rules)
	var granted int64
	if res.Extended && res.BonusXP > 0 {
		award, err := s.appendCapped(userID, domain.SourceStreak, "", "", res.BonusXP, 0, running, now)
		if err != nil {
			return res, 0, err
		}
		granted = award.Amount
	}
	if err := s.db.SaveUserProgress(p); err != nil {
		return res, granted, fmt.Errorf("save progress: %w", err)
	}
	return res, granted, nil
}

// varietyBonus awards once per day when today's signals span enough
// distinct subskills. The presence of any VARIETY_BONUS entry today —
// even a capped zero — marks the bonus as spent.
func (s *Service) varietyBonus(userID string, now time.Time, running *int64) (int64, error) {
	if s.rules.VarietyBonusXP <= 0 || s.rules.VarietyMinSubskills <= 0 {
		return 0, nil
	}
	distinct, err := s.db.DistinctSignalSubskillsOnDay(userID, now)
	if err != nil {
		return 0, err
	}
	if distinct < s.rules.VarietyMinSubskills {
		return 0, nil
	}
	spent, err := s.db.HasSourceEntryOnDay(userID, domain.SourceVarietyBonus, now)
	if err != nil || spent {
		return 0, err
	}
	award, err := s.appendCapped(userID, domain.SourceVarietyBonus, "", "", s.rules.VarietyBonusXP, 0, running, now)
	if err != nil {
		return 0, err
	}
	return award.Amount, nil
}

// evaluateQuestsAt recomputes every active quest instance and awards the
// reward for fresh completions exactly once.
func (s *Service) evaluateQuestsAt(userID string, now time.Time, running *int64) ([]domain.QuestProgress, error) {
	defs := make([]domain.QuestDef, 0, len(s.quests))
	defs = append(defs, s.quests...)
	boss, err := s.bossQuestsFor(userID)
	if err != nil {
		return nil, err
	}
	defs = append(defs, boss...)

	cats, err := s.db.SubskillCategories()
	if err != nil {
		return nil, err
	}

	var board []domain.QuestProgress
	for _, def := range defs {
		window, err := def.WindowFor(now)
		if err != nil {
			return nil, err
		}
		key, err := def.InstanceKey(now)
		if err != nil {
			return nil, err
		}

		done, err := s.db.QuestInstanceCompleted(userID, key)
		if err != nil {
			return nil, err
		}
		events, err := s.questEvents(userID, def, window, now, cats)
		if err != nil {
			return nil, err
		}
		qp, err := EvaluateQuest(def, events, window, done)
		if err != nil {
			return nil, err
		}
		qp.InstanceKey = key

		if qp.NewlyCompleted {
			isNew, err := s.db.CompleteQuestInstance(userID, key, now)
			if err != nil {
				return nil, err
			}
			if isNew {
				if _, err := s.appendCapped(userID, domain.SourceQuest, def.SubskillID, key, def.RewardXP, 0, running, now); err != nil {
					return nil, err
				}
				metrics.QuestsCompleted.WithLabelValues(string(def.Type)).Inc()
			} else {
				// Lost the race to another evaluation — reward
				// already paid.
				qp.NewlyCompleted = false
			}
		}
		board = append(board, qp)
	}
	return board, nil
}

// questEvents materializes the qualifying events for one quest instance.
func (s *Service) questEvents(userID string, def domain.QuestDef, window domain.QuestWindow, now time.Time, cats map[string]string) ([]domain.QuestEvent, error) {
	if def.Match == domain.MatchThresholdCrossed {
		// Boss quests measure the skill's SIGNAL-sourced ledger XP.
		xp, err := s.db.SubskillSignalXP(userID, def.SubskillID)
		if err != nil {
			return nil, err
		}
		return []domain.QuestEvent{{SubskillID: def.SubskillID, XP: xp, At: now}}, nil
	}

	var events []domain.QuestEvent
	if def.Events != domain.EventsReflections {
		signals, err := s.db.SignalsInRange(userID, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		for _, sig := range signals {
			events = append(events, domain.QuestEvent{
				Tags:       []string{cats[sig.SubskillID]},
				SubskillID: sig.SubskillID,
				At:         sig.CreatedAt,
			})
		}
	}
	if def.Events != domain.EventsSignals {
		reflections, err := s.db.ReflectionsInRange(userID, window.Start, window.End)
		if err != nil {
			return nil, err
		}
		for _, ref := range reflections {
			events = append(events, domain.QuestEvent{Tags: ref.Domains, At: ref.CreatedAt})
		}
	}
	return events, nil
}

// bossQuestsFor synthesizes one boss quest per level boundary a skill
// has crossed or is approaching. Each boundary's instance completes
// exactly once.
func (s *Service) bossQuestsFor(userID string) ([]domain.QuestDef, error) {
	rows, err := s.db.ListSubskillProgress(userID)
	if err != nil {
		return nil, err
	}
	var defs []domain.QuestDef
	for _, row := range rows {
		if row.XPEarned <= 0 {
			continue
		}
		for i := 1; i < len(s.levels); i++ {
			t := s.levels[i]
			defs = append(defs, domain.QuestDef{
				ID:          fmt.Sprintf("boss-%s-l%d", row.SubskillID, t.Level),
				Type:        domain.QuestBoss,
				Match:       domain.MatchThresholdCrossed,
				Description: fmt.Sprintf("Push %s to %s (%d XP)", row.SubskillID, t.Name, t.XP),
				Target:      t.XP,
				RewardXP:    bossRewardXP,
				SubskillID:  row.SubskillID,
			})
			if t.XP > row.XPEarned {
				break // The upcoming boundary — nothing past it yet
			}
		}
	}
	return defs, nil
}

// syncTotal refreshes the snapshot total from the ledger, preserving the
// invariant that total XP equals the ledger sum.
func (s *Service) syncTotal(userID string) (int64, error) {
	total, err := s.db.TotalXP(userID)
	if err != nil {
		return 0, err
	}
	p, err := s.db.GetUserProgress(userID)
	if err != nil {
		return total, err
	}
	p.TotalXP = total
	return total, s.db.SaveUserProgress(p)
}

func newlyCompleted(board []domain.QuestProgress) []domain.QuestProgress {
	var done []domain.QuestProgress
	for _, qp := range board {
		if qp.NewlyCompleted {
			done = append(done, qp)
		}
	}
	return done
}
