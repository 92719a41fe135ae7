package audit

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Attendance statuses mirror the persisted attendance log.
const (
	StatusIn        = "IN"
	StatusForbidden = "FORBIDDEN"
)

// Audit actions emitted by the verification and enrollment flows.
const (
	ActionFaceVerification = "FACE_VERIFICATION"
	ActionAuthFailed       = "AUTHENTICATION_FAILED"
	ActionEnrollSuccess    = "ENROLL_SUCCESS"
	ActionEnrollFailed     = "ENROLL_FAILED"
)

// Attendance describes one access decision for the attendance log.
// The timestamp is assigned by the caller before signing, so the signature
// covers the exact persisted value.
type Attendance struct {
	IdentityID string
	Room       string
	Status     string
	Score      float64
	Timestamp  time.Time
}

// Payload renders the attendance record into its canonical field mapping.
func (a Attendance) Payload() Payload {
	return Payload{
		"identity_id": a.IdentityID,
		"room":        a.Room,
		"status":      a.Status,
		"confidence":  strconv.FormatFloat(a.Score, 'f', 6, 64),
		"timestamp":   a.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Event describes one security-relevant action for the audit log.
// Actor is empty when no identity was involved (e.g. a failed match).
type Event struct {
	ID        string
	Action    string
	Actor     string
	Source    string
	Timestamp time.Time
	Details   map[string]string
}

// NewEvent creates an event with a fresh ID and the given timestamp already
// assigned, ready to be signed.
func NewEvent(action, actor, source string, at time.Time, details map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Source:    source,
		Timestamp: at,
		Details:   details,
	}
}

// Payload renders the event into its canonical field mapping. Detail keys
// are namespaced so they can never collide with the reserved fields.
func (e Event) Payload() Payload {
	p := Payload{
		"event_id":  e.ID,
		"action":    e.Action,
		"actor":     e.Actor,
		"source":    e.Source,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range e.Details {
		p["detail."+k] = v
	}
	return p
}
