package domain

import "errors"

var (
	// ErrParticipantNotFound is returned when a participant ID is unknown.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrApplicationNumberTaken is returned when an application number is already in use.
	ErrApplicationNumberTaken = errors.New("application number already registered")
	// ErrLeaderboardEntryNotFound indicates no leaderboard row for a participant.
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")
)
