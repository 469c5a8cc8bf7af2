// Package types holds the wire shapes exchanged with clients and the
// external orchestrator. It deliberately has no dependency on the
// internal packages so external tooling can import it.
package types

import "time"

// Client -> Coordinator
//
// start:  {}
// ban:    { itemIds: [..] }
// pick:   { itemId: ".." }
// cancel: { reason: "cancel" | "scrub" }
// config: { banDeadlineSeconds?, pickDeadlineSeconds? }
type ClientMessage struct {
	Type                string   `json:"type"`
	Items               []string `json:"itemIds,omitempty"`
	Item                string   `json:"itemId,omitempty"`
	Reason              string   `json:"reason,omitempty"`
	BanDeadlineSeconds  *int     `json:"banDeadlineSeconds,omitempty"`
	PickDeadlineSeconds *int     `json:"pickDeadlineSeconds,omitempty"`
}

// Coordinator -> Client. Type is "init", "update" or "error".
type ServerMessage struct {
	Type        string         `json:"type"`
	State       *StateSnapshot `json:"state,omitempty"`
	HostID      string         `json:"hostId,omitempty"`
	SeatIndex   *int           `json:"seatIndex,omitempty"`
	Events      []Event        `json:"events,omitempty"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// StateSnapshot is the redacted view of a session a single connection is
// allowed to see. During an unrevealed blind ban phase, Pending carries
// only the recipient's own submissions while Submitted still flags which
// seats have locked in.
type StateSnapshot struct {
	SessionID    string           `json:"sessionId"`
	FormatID     string           `json:"formatId"`
	Status       string           `json:"status"`
	PhaseIndex   int              `json:"phaseIndex"`
	Phases       []Phase          `json:"phases"`
	Seats        []Seat           `json:"seats"`
	Pool         []string         `json:"pool"`
	Bans         []Selection      `json:"bans"`
	Picks        []Selection      `json:"picks"`
	Pending      map[int][]string `json:"pending,omitempty"`
	Submitted    map[int]bool     `json:"submitted,omitempty"`
	CancelReason string           `json:"cancelReason,omitempty"`
}

type Seat struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Team          int    `json:"team"`
}

type Phase struct {
	Kind            string `json:"kind"`
	Seats           []int  `json:"seats,omitempty"`
	Count           int    `json:"count"`
	DeadlineSeconds int    `json:"deadlineSeconds"`
}

type Selection struct {
	Seat       int    `json:"seat"`
	PhaseIndex int    `json:"phaseIndex"`
	Item       string `json:"itemId"`
}

// Event mirrors one engine event on the wire. Types: started,
// bans_submitted, pick_submitted, auto_filled, bans_revealed,
// phase_advanced, completed, cancelled.
type Event struct {
	Type       string      `json:"type"`
	Seat       *int        `json:"seat,omitempty"`
	PhaseIndex *int        `json:"phaseIndex,omitempty"`
	Items      []string    `json:"itemIds,omitempty"`
	Item       string      `json:"itemId,omitempty"`
	Selections []Selection `json:"selections,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}
