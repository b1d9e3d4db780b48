package model

import "time"

// PlayerIdentity is the stable identity carried by a verified token.
// Immutable for the lifetime of a session.
type PlayerIdentity struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	Name      string `json:"name" bson:"name"`
	AvatarURL string `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
}

// FormerPlayer is the roster stub kept for a player who disconnected
// and never returned, so their score can still be displayed.
type FormerPlayer struct {
	Name      string    `json:"name" bson:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	LeftAt    time.Time `json:"leftAt" bson:"leftAt"`
}

// RosterEntry is the per-member view included in every snapshot.
type RosterEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	IsHost       bool   `json:"isHost"`
	IsLateJoiner bool   `json:"isLateJoiner"`
	Unreachable  bool   `json:"unreachable"`
	Score        int    `json:"score"`
}
