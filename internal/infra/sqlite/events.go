package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tendlog/tend/internal/domain"
)

// ─── Subskill Taxonomy ──────────────────────────────────────────────────────

// UpsertSubskill inserts or updates a subskill definition.
func (d *DB) UpsertSubskill(s domain.Subskill) error {
	_, err := d.db.Exec(
		`INSERT INTO subskills (id, name, category) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, category=excluded.category`,
		s.ID, s.Name, s.Category,
	)
	return err
}

// GetSubskill retrieves a subskill by id. Returns nil when absent.
func (d *DB) GetSubskill(id string) (*domain.Subskill, error) {
	var s domain.Subskill
	err := d.db.QueryRow(
		`SELECT id, name, category FROM subskills WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSubskills returns the full taxonomy ordered by category then name.
func (d *DB) ListSubskills() ([]domain.Subskill, error) {
	rows, err := d.db.Query(`SELECT id, name, category FROM subskills ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subskills []domain.Subskill
	for rows.Next() {
		var s domain.Subskill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category); err != nil {
			return nil, err
		}
		subskills = append(subskills, s)
	}
	return subskills, rows.Err()
}

// SubskillCategories returns the subskill-id → category mapping used by
// the activity aggregator's domain breakdown.
func (d *DB) SubskillCategories() (map[string]string, error) {
	subskills, err := d.ListSubskills()
	if err != nil {
		return nil, err
	}
	cats := make(map[string]string, len(subskills))
	for _, s := range subskills {
		cats[s.ID] = s.Category
	}
	return cats, nil
}

// ─── Signals ────────────────────────────────────────────────────────────────

// InsertSignal stores a logged signal.
func (d *DB) InsertSignal(s domain.Signal) error {
	_, err := d.db.Exec(
		`INSERT INTO signals (id, user_id, subskill_id, note, artifact_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.SubskillID, s.Note, s.ArtifactURL, s.CreatedAt.Unix(),
	)
	return err
}

// SignalsInRange returns signals with created_at in [from, to), oldest first.
func (d *DB) SignalsInRange(userID string, from, to time.Time) ([]domain.Signal, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, subskill_id, note, artifact_url, created_at
		 FROM signals WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`,
		userID, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var s domain.Signal
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.SubskillID, &s.Note, &s.ArtifactURL, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// ─── Reflections ────────────────────────────────────────────────────────────

// InsertReflection stores a submitted reflection. Domains are kept as a
// JSON array in one column.
func (d *DB) InsertReflection(r domain.Reflection) error {
	domains, err := json.Marshal(r.Domains)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT INTO reflections (id, user_id, content, domains, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Content, string(domains), r.CreatedAt.Unix(),
	)
	return err
}

// ReflectionsInRange returns reflections with created_at in [from, to),
// oldest first.
func (d *DB) ReflectionsInRange(userID string, from, to time.Time) ([]domain.Reflection, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, content, domains, created_at
		 FROM reflections WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`,
		userID, from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reflections []domain.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		reflections = append(reflections, *r)
	}
	return reflections, rows.Err()
}

// RecentReflections returns the newest reflections for a user. Feeds the
// insight prompt.
func (d *DB) RecentReflections(userID string, limit int) ([]domain.Reflection, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, content, domains, created_at
		 FROM reflections WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reflections []domain.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		reflections = append(reflections, *r)
	}
	return reflections, rows.Err()
}

func scanReflection(s scanner) (*domain.Reflection, error) {
	var r domain.Reflection
	var domains string
	var createdAt int64
	if err := s.Scan(&r.ID, &r.UserID, &r.Content, &domains, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(domains), &r.Domains); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}
