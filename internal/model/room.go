package model

import "time"

type GameMode string

const (
	ModeVoice GameMode = "voice"
	ModeChat  GameMode = "chat"
)

// CurrentSchemaVersion marks the persisted room record shape. Records
// missing the marker (version 0) predate it and must be migrated before use.
const CurrentSchemaVersion = 2

// RoomOptions is the host-configurable room setup.
type RoomOptions struct {
	GameMode         GameMode `json:"gameMode" bson:"gameMode"`
	ShowImpostorHint bool     `json:"showImpostorHint" bson:"showImpostorHint"`
	Language         string   `json:"language,omitempty" bson:"language,omitempty"`
}

// RoomRecord is the persisted per-room document. Live match state is
// in-memory only; the record carries what must survive a match.
type RoomRecord struct {
	Code          string                  `json:"code" bson:"code"`
	HostID        string                  `json:"hostId" bson:"hostId"`
	Options       RoomOptions             `json:"options" bson:"options"`
	Scores        map[string]int          `json:"scores" bson:"scores"`
	FormerPlayers map[string]FormerPlayer `json:"formerPlayers" bson:"formerPlayers"`
	SchemaVersion int                     `json:"schemaVersion" bson:"schemaVersion"`
	CreatedAt     time.Time               `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt" bson:"updatedAt"`
}
