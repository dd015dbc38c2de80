package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Ledger errors
	ErrNegativeAmount = errors.New("ledger entries cannot carry negative XP")
	ErrUnknownSource  = errors.New("unknown XP source type")
	ErrUnknownUser    = errors.New("user id is required")

	// Event errors
	ErrSubskillNotFound = errors.New("subskill not found")
	ErrEmptyReflection  = errors.New("reflection content is empty")
	ErrNoDomains        = errors.New("reflection must carry at least one domain")

	// Quest errors
	ErrQuestNotFound    = errors.New("quest definition not found")
	ErrUnknownQuestType = errors.New("unknown quest type")
	ErrUnknownMatchKind = errors.New("unknown quest matching rule")

	// Level errors
	ErrEmptyLevelTable = errors.New("level threshold table is empty")

	// Aggregation errors
	ErrInvalidRange = errors.New("range end precedes start")

	// Insight collaborator errors
	ErrInsightUnavailable = errors.New("insight service unavailable")
)
