package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tendlog/tend/internal/domain"
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────
// Append-only. Nothing here updates or deletes a ledger row.

// AppendEntry adds an XP ledger entry and returns its id. The source
// must be one of the known kinds; the ledger never stores free-form ones.
func (d *DB) AppendEntry(e domain.LedgerEntry) (int64, error) {
	if e.Amount < 0 {
		return 0, domain.ErrNegativeAmount
	}
	if !domain.ValidSource(e.Source) {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownSource, e.Source)
	}
	result, err := d.db.Exec(
		`INSERT INTO xp_ledger (user_id, amount, source, subskill_id, quest_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Amount, string(e.Source),
		nullStr(e.SubskillID), nullStr(e.QuestKey), e.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// TotalXP returns the lifetime XP sum for a user.
func (d *DB) TotalXP(userID string) (int64, error) {
	var total sql.NullInt64
	err := d.db.QueryRow(
		`SELECT SUM(amount) FROM xp_ledger WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// XPOnDay returns the user's XP sum across all sources for one calendar day.
func (d *DB) XPOnDay(userID string, day time.Time) (int64, error) {
	start, end := dayBounds(day)
	var total sql.NullInt64
	err := d.db.QueryRow(
		`SELECT SUM(amount) FROM xp_ledger
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?`,
		userID, start, end,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// SignalAwardCountOnDay counts SIGNAL-sourced awards for one subskill on
// one calendar day. This is the diminishing-returns occurrence index:
// a count, not a sum, so zero-XP entries still step the ladder.
func (d *DB) SignalAwardCountOnDay(userID, subskillID string, day time.Time) (int, error) {
	start, end := dayBounds(day)
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM xp_ledger
		 WHERE user_id = ? AND source = ? AND subskill_id = ?
		   AND created_at >= ? AND created_at < ?`,
		userID, string(domain.SourceSignal), subskillID, start, end,
	).Scan(&count)
	return count, err
}

// DistinctSignalSubskillsOnDay counts distinct subskills with a SIGNAL
// ledger entry on the given day. Drives the variety bonus.
func (d *DB) DistinctSignalSubskillsOnDay(userID string, day time.Time) (int, error) {
	start, end := dayBounds(day)
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(DISTINCT subskill_id) FROM xp_ledger
		 WHERE user_id = ? AND source = ? AND created_at >= ? AND created_at < ?`,
		userID, string(domain.SourceSignal), start, end,
	).Scan(&count)
	return count, err
}

// HasSourceEntryOnDay reports whether the user already has an entry of
// the given source on the given day (e.g. one variety bonus per day).
func (d *DB) HasSourceEntryOnDay(userID string, source domain.XPSource, day time.Time) (bool, error) {
	start, end := dayBounds(day)
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM xp_ledger
		 WHERE user_id = ? AND source = ? AND created_at >= ? AND created_at < ?`,
		userID, string(source), start, end,
	).Scan(&count)
	return count > 0, err
}

// SubskillSignalXP returns the lifetime SIGNAL-sourced XP for one
// (user, subskill) pair — the per-skill total boss quests measure.
func (d *DB) SubskillSignalXP(userID, subskillID string) (int64, error) {
	var total sql.NullInt64
	err := d.db.QueryRow(
		`SELECT SUM(amount) FROM xp_ledger
		 WHERE user_id = ? AND source = ? AND subskill_id = ?`,
		userID, string(domain.SourceSignal), subskillID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// QuestXPSum returns the XP already awarded for one quest instance key.
func (d *DB) QuestXPSum(userID, questKey string) (int64, error) {
	var total sql.NullInt64
	err := d.db.QueryRow(
		`SELECT SUM(amount) FROM xp_ledger WHERE user_id = ? AND quest_key = ?`,
		userID, questKey,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// EntriesInRange returns ledger entries with created_at in [from, to),
// oldest first.
func (d *DB) EntriesInRange(userID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, amount, source, subskill_id, quest_key, created_at
		 FROM xp_ledger
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC, id ASC`,
		userID, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// RecentEntries returns the newest ledger entries for a user.
func (d *DB) RecentEntries(userID string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, amount, source, subskill_id, quest_key, created_at
		 FROM xp_ledger WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var createdAt int64
	var subskill, questKey sql.NullString
	err := s.Scan(&e.ID, &e.UserID, &e.Amount, &e.Source, &subskill, &questKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(createdAt, 0)
	if subskill.Valid {
		e.SubskillID = subskill.String
	}
	if questKey.Valid {
		e.QuestKey = questKey.String
	}
	return &e, nil
}
