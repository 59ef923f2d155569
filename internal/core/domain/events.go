package domain

import "time"

// ResidencesMatchedEvent is emitted when newly ingested residences match a
// user's profile. The delivery channel is the notification service's concern.
type ResidencesMatchedEvent struct {
	EventID    string
	UserID     string
	Username   string
	Residences []Residence
	MatchedAt  time.Time
}

// RankedReaction pairs a reaction whose rank just became known with the
// residence it belongs to.
type RankedReaction struct {
	Reaction  Reaction
	Residence Residence
}

// ReactionsRankedEvent is emitted once per sync run in which one or more of
// a registration's reactions received a rank for the first time.
type ReactionsRankedEvent struct {
	EventID    string
	UserID     string
	Username   string
	Reactions  []RankedReaction
	ObservedAt time.Time
}
