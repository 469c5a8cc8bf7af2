package types

import "time"

// CreateSessionRequest is the one-time initialization call issued by the
// external orchestrator.
type CreateSessionRequest struct {
	SessionID           string   `json:"sessionId"`
	HostID              string   `json:"hostId"`
	FormatID            string   `json:"formatId"`
	Seats               []Seat   `json:"seats"`
	Pool                []string `json:"pool"`
	BanDeadlineSeconds  *int     `json:"banDeadlineSeconds,omitempty"`
	PickDeadlineSeconds *int     `json:"pickDeadlineSeconds,omitempty"`
	NotifyURL           string   `json:"notifyUrl,omitempty"`
	NotifySecret        string   `json:"notifySecret,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// StatusResponse is the read-only status query result.
type StatusResponse struct {
	State       StateSnapshot `json:"state"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
