package model

import (
	"strings"
	"time"
)

// Model is an installed simulator aircraft model, identified by its title.
type Model struct {
	Title     string    `json:"title"`     // Primary Key, the container title
	ICAOType  string    `json:"icao_type"` // e.g. "A320"
	Airline   string    `json:"airline"`   // ICAO airline designator, empty for generic liveries
	Engines   int       `json:"engines"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchScore rates how well the model fits an aircraft type and airline.
// 0 means no match.
func (m Model) MatchScore(icaoType, airline string) int {
	if !strings.EqualFold(m.ICAOType, icaoType) {
		return 0
	}
	switch {
	case airline != "" && strings.EqualFold(m.Airline, airline):
		return 3
	case m.Airline == "":
		return 2
	}
	return 1
}

// DisabledModel is a model that failed to load and is skipped by matching.
type DisabledModel struct {
	Title      string    `json:"title"`
	Reason     string    `json:"reason"`
	DisabledAt time.Time `json:"disabled_at"`
}
