package models

import "errors"

var (
	// ErrInsufficientTeams is returned when fewer than two teams are scheduled
	ErrInsufficientTeams = errors.New("insufficient_teams")
	ErrDuplicateTeam     = errors.New("duplicate_team")
	ErrInvalidTeam       = errors.New("invalid_team")

	// ErrInvalidScore is returned for raw scores that are not finite or are out of range
	ErrInvalidScore = errors.New("invalid_score")

	ErrMatchNotFound     = errors.New("match_not_found")
	ErrAlreadyCompleted  = errors.New("already_completed")
	ErrInconsistentState = errors.New("inconsistent_state")
	ErrSeasonComplete    = errors.New("season_complete")

	// ErrNotFound is returned by storage engines for unknown competitions
	ErrNotFound        = errors.New("not_found")
	ErrVersionConflict = errors.New("version_conflict")
	ErrShareCodeTaken  = errors.New("share_code_taken")
	// ErrPersistence wraps any storage failure so callers can decide to retry
	ErrPersistence = errors.New("persistence_failure")
)
