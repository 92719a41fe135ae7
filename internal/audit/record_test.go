package audit

import (
	"testing"
	"time"
)

func TestAttendancePayload(t *testing.T) {
	ts := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	a := Attendance{
		IdentityID: "S100",
		Room:       "R1",
		Status:     StatusIn,
		Score:      0.873512,
		Timestamp:  ts,
	}

	p := a.Payload()
	if p["identity_id"] != "S100" || p["room"] != "R1" || p["status"] != "IN" {
		t.Errorf("unexpected payload fields: %v", p)
	}
	if p["confidence"] != "0.873512" {
		t.Errorf("confidence = %q, want 0.873512", p["confidence"])
	}
	if p["timestamp"] != "2025-03-10T09:30:00Z" {
		t.Errorf("timestamp = %q, want 2025-03-10T09:30:00Z", p["timestamp"])
	}
}

func TestAttendancePayloadStable(t *testing.T) {
	ts := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	a := Attendance{IdentityID: "S100", Room: "R1", Status: StatusIn, Score: 0.5, Timestamp: ts}

	s, _ := NewSigner([]byte("k"))
	sig1, _ := s.Sign(a.Payload())
	sig2, _ := s.Sign(a.Payload())
	if sig1 != sig2 {
		t.Error("rendering the same attendance twice produced different signatures")
	}
}

func TestEventPayload(t *testing.T) {
	ts := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	e := NewEvent(ActionAuthFailed, "", "door-cam-1", ts, map[string]string{
		"reason": "NO_FACE",
	})

	if e.ID == "" {
		t.Error("event ID is empty")
	}

	p := e.Payload()
	if p["action"] != ActionAuthFailed {
		t.Errorf("action = %q, want %q", p["action"], ActionAuthFailed)
	}
	if p["actor"] != "" {
		t.Errorf("actor = %q, want empty", p["actor"])
	}
	if p["detail.reason"] != "NO_FACE" {
		t.Errorf("detail.reason = %q, want NO_FACE", p["detail.reason"])
	}
}

func TestEventDetailNamespacing(t *testing.T) {
	ts := time.Now()
	e := NewEvent(ActionFaceVerification, "S100", "door-cam-1", ts, map[string]string{
		"action": "spoofed", // must not clobber the reserved field
	})

	p := e.Payload()
	if p["action"] != ActionFaceVerification {
		t.Errorf("reserved field overwritten: action = %q", p["action"])
	}
	if p["detail.action"] != "spoofed" {
		t.Errorf("detail.action = %q, want spoofed", p["detail.action"])
	}
}

func TestEventTimestampSetBeforeSigning(t *testing.T) {
	// The payload must carry the timestamp it was built with; a record can
	// never be signed first and timestamped later.
	ts := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	e := NewEvent(ActionEnrollSuccess, "S100", "admin-ui", ts, nil)

	s, _ := NewSigner([]byte("k"))
	rec, err := s.SignRecord(e.Payload())
	if err != nil {
		t.Fatalf("SignRecord: %v", err)
	}
	if rec.Payload["timestamp"] != "2025-03-10T09:30:00Z" {
		t.Errorf("timestamp = %q, want the pre-signing value", rec.Payload["timestamp"])
	}
	if !s.Verify(rec.Payload, rec.Signature) {
		t.Error("record does not verify")
	}
}
