package sqlite

import (
	"database/sql"
	"time"

	"github.com/tendlog/tend/internal/domain"
)

// Dates in progress rows are stored as "2006-01-02" strings so that
// comparisons stay at day granularity regardless of clock precision.
const dayLayout = "2006-01-02"

// ─── User Progress ──────────────────────────────────────────────────────────

// GetUserProgress loads the per-user snapshot. A user with no history
// gets the natural zero state, never an error.
func (d *DB) GetUserProgress(userID string) (domain.UserProgress, error) {
	p := domain.UserProgress{UserID: userID}
	var lastLog string
	err := d.db.QueryRow(
		`SELECT total_xp, current_streak, longest_streak, last_log_date
		 FROM user_progress WHERE user_id = ?`, userID,
	).Scan(&p.TotalXP, &p.CurrentStreak, &p.LongestStreak, &lastLog)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if lastLog != "" {
		p.LastLogDate, _ = time.ParseInLocation(dayLayout, lastLog, time.Local)
	}
	return p, nil
}

// SaveUserProgress upserts the per-user snapshot.
func (d *DB) SaveUserProgress(p domain.UserProgress) error {
	lastLog := ""
	if !p.LastLogDate.IsZero() {
		lastLog = p.LastLogDate.Format(dayLayout)
	}
	_, err := d.db.Exec(
		`INSERT INTO user_progress (user_id, total_xp, current_streak, longest_streak, last_log_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			total_xp=excluded.total_xp,
			current_streak=excluded.current_streak,
			longest_streak=excluded.longest_streak,
			last_log_date=excluded.last_log_date`,
		p.UserID, p.TotalXP, p.CurrentStreak, p.LongestStreak, lastLog,
	)
	return err
}

// ─── Subskill Progress ──────────────────────────────────────────────────────

// BumpSubskillProgress records one signal award against a (user, subskill)
// pair: xp_earned grows by amount, signal_count by one. The row is created
// on the first signal and never deleted.
func (d *DB) BumpSubskillProgress(userID, subskillID string, amount int64, day time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO subskill_progress (user_id, subskill_id, xp_earned, signal_count, last_signal_date)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(user_id, subskill_id) DO UPDATE SET
			xp_earned=xp_earned+excluded.xp_earned,
			signal_count=signal_count+1,
			last_signal_date=excluded.last_signal_date`,
		userID, subskillID, amount, day.Format(dayLayout),
	)
	return err
}

// ListSubskillProgress returns all subskill progress rows for a user.
func (d *DB) ListSubskillProgress(userID string) ([]domain.SubskillProgress, error) {
	rows, err := d.db.Query(
		`SELECT user_id, subskill_id, xp_earned, signal_count, last_signal_date
		 FROM subskill_progress WHERE user_id = ? ORDER BY xp_earned DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []domain.SubskillProgress
	for rows.Next() {
		var p domain.SubskillProgress
		var lastSignal string
		if err := rows.Scan(&p.UserID, &p.SubskillID, &p.XPEarned, &p.SignalCount, &lastSignal); err != nil {
			return nil, err
		}
		if lastSignal != "" {
			p.LastSignalDate, _ = time.ParseInLocation(dayLayout, lastSignal, time.Local)
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// ─── Quest Completions ──────────────────────────────────────────────────────

// CompleteQuestInstance records a quest instance as completed.
// Returns false if the marker already existed (idempotent) — the caller
// must only award the quest reward on true.
func (d *DB) CompleteQuestInstance(userID, questKey string, at time.Time) (bool, error) {
	result, err := d.db.Exec(
		`INSERT OR IGNORE INTO quest_completions (user_id, quest_key, completed_at)
		 VALUES (?, ?, ?)`,
		userID, questKey, at.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// QuestInstanceCompleted reports whether a quest instance already awarded.
func (d *DB) QuestInstanceCompleted(userID, questKey string) (bool, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM quest_completions WHERE user_id = ? AND quest_key = ?`,
		userID, questKey,
	).Scan(&count)
	return count > 0, err
}
