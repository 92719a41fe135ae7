// Package gate orchestrates one verification attempt: vectorize the probe,
// match it against enrolled identities, authorize the matched identity for
// the requested room and emit signed records for the store.
package gate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/audit"
	"github.com/facegate/facegate/internal/authz"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/embedding"
	"github.com/facegate/facegate/internal/match"
	"github.com/facegate/facegate/internal/secrets"
)

// Non-authorization reason codes surfaced in decisions.
const (
	ReasonNoFace     = "NO_FACE"
	ReasonNotMatched = "FACE_NOT_MATCHED"
)

// IdentityInfo is the matched identity exposed to callers.
type IdentityInfo struct {
	ID   string
	Name string
}

// Decision is the structured result of one verification attempt. The two
// signed records must be persisted verbatim; they are never re-signed.
type Decision struct {
	Matched    bool
	Authorized bool
	Identity   *IdentityInfo
	Room       string
	Score      float64
	Reason     string
	Attendance *audit.SignedRecord // nil when no identity matched
	Event      audit.SignedRecord
}

// Service drives the verification pipeline. All dependencies are built once
// at startup and held immutably; the service is stateless across calls and
// safe for concurrent use.
type Service struct {
	vectorizer *embedding.Vectorizer
	authorizer *authz.Authorizer
	signer     *audit.Signer
	codec      *secrets.Codec
	store      database.Store
	threshold  float64
	log        *zap.Logger
	now        func() time.Time
}

// Config assembles a Service. Signer and Store are required; Codec may be
// nil (field sealing disabled).
type Config struct {
	Vectorizer *embedding.Vectorizer
	Authorizer *authz.Authorizer
	Signer     *audit.Signer
	Codec      *secrets.Codec
	Store      database.Store
	Threshold  float64
	Logger     *zap.Logger
	Now        func() time.Time
}

// New builds the orchestrator. Construction fails rather than producing a
// service that could emit unsigned records.
func New(cfg Config) (*Service, error) {
	if cfg.Signer == nil {
		return nil, audit.ErrMisconfiguredSecret
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Vectorizer == nil {
		return nil, errors.New("vectorizer is required")
	}

	s := &Service{
		vectorizer: cfg.Vectorizer,
		authorizer: cfg.Authorizer,
		signer:     cfg.Signer,
		codec:      cfg.Codec,
		store:      cfg.Store,
		threshold:  cfg.Threshold,
		log:        cfg.Logger,
		now:        cfg.Now,
	}
	if s.authorizer == nil {
		s.authorizer = &authz.Authorizer{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Verify runs the full pipeline for one probe image against the requested
// room. Invalid images fail fast; a missing face or a failed match is a
// normal outcome recorded in the audit log, not an error.
func (s *Service) Verify(ctx context.Context, img image.Image, roomCode, source string) (*Decision, error) {
	probe, err := s.vectorizer.Vectorize(ctx, img)
	if errors.Is(err, embedding.ErrInvalidImage) {
		return nil, err
	}
	if errors.Is(err, embedding.ErrNoFaceDetected) {
		return s.deniedWithoutIdentity(ctx, audit.ActionAuthFailed, roomCode, source, ReasonNoFace, match.NoScore)
	}
	if err != nil {
		return nil, fmt.Errorf("vectorize probe: %w", err)
	}

	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enrolled identities: %w", err)
	}
	candidates := make([]match.Candidate, 0, len(identities))
	for _, id := range identities {
		candidates = append(candidates, match.Candidate{ID: id.ID, Name: id.Name, Vector: id.Vector})
	}

	decision := match.Match(probe, candidates, s.threshold)
	if !decision.Matched {
		s.log.Info("face not matched",
			zap.String("room", roomCode),
			zap.Float64("best_score", decision.Score),
			zap.Float64("threshold", s.threshold))
		return s.deniedWithoutIdentity(ctx, audit.ActionAuthFailed, roomCode, source, ReasonNotMatched, decision.Score)
	}

	identity := &IdentityInfo{ID: decision.Best.ID, Name: decision.Best.Name}

	room, err := s.store.GetRoom(ctx, roomCode)
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomCode, err)
	}

	var policy *authz.Policy
	if room != nil {
		stored, err := s.store.GetPolicy(ctx, identity.ID, room.Code)
		if err != nil {
			return nil, fmt.Errorf("get policy (%s, %s): %w", identity.ID, room.Code, err)
		}
		if stored != nil {
			policy = &authz.Policy{
				Allowed:     stored.Allowed,
				AllowedFrom: stored.AllowedFrom,
				AllowedTo:   stored.AllowedTo,
			}
		}
	}

	outcome := s.authorizer.Authorize(room != nil, policy)

	now := s.now()
	status := audit.StatusForbidden
	if outcome.Granted {
		status = audit.StatusIn
	}

	// The timestamp goes into the payload before signing; the persisted row
	// carries the identical value.
	attendance := audit.Attendance{
		IdentityID: identity.ID,
		Room:       roomCode,
		Status:     status,
		Score:      decision.Score,
		Timestamp:  now,
	}
	attendanceRec, err := s.signer.SignRecord(attendance.Payload())
	if err != nil {
		return nil, fmt.Errorf("sign attendance record: %w", err)
	}

	event := audit.NewEvent(audit.ActionFaceVerification, identity.ID, source, now, map[string]string{
		"room":       roomCode,
		"authorized": strconv.FormatBool(outcome.Granted),
		"reason":     string(outcome.Reason),
		"confidence": strconv.FormatFloat(decision.Score, 'f', 6, 64),
		"threshold":  strconv.FormatFloat(s.threshold, 'f', 6, 64),
	})
	eventRec, err := s.signer.SignRecord(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("sign audit event: %w", err)
	}

	if err := s.store.AppendAttendance(ctx, database.AttendanceRow{
		IdentityID:   identity.ID,
		IdentityName: identity.Name,
		RoomCode:     roomCode,
		Status:       status,
		Confidence:   decision.Score,
		Payload:      attendanceRec.Payload,
		Signature:    attendanceRec.Signature,
		CreatedAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("persist attendance: %w", err)
	}
	if err := s.appendEvent(ctx, event, eventRec); err != nil {
		return nil, err
	}

	s.log.Info("verification decided",
		zap.String("identity", identity.ID),
		zap.String("room", roomCode),
		zap.Bool("authorized", outcome.Granted),
		zap.String("reason", string(outcome.Reason)),
		zap.Float64("confidence", decision.Score))

	return &Decision{
		Matched:    true,
		Authorized: outcome.Granted,
		Identity:   identity,
		Room:       roomCode,
		Score:      decision.Score,
		Reason:     string(outcome.Reason),
		Attendance: &attendanceRec,
		Event:      eventRec,
	}, nil
}

// deniedWithoutIdentity records and returns a non-match outcome. No
// attendance row is written because no identity was established.
func (s *Service) deniedWithoutIdentity(ctx context.Context, action, roomCode, source, reason string, score float64) (*Decision, error) {
	now := s.now()
	event := audit.NewEvent(action, "", source, now, map[string]string{
		"room":       roomCode,
		"reason":     reason,
		"best_score": strconv.FormatFloat(score, 'f', 6, 64),
		"threshold":  strconv.FormatFloat(s.threshold, 'f', 6, 64),
	})
	eventRec, err := s.signer.SignRecord(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("sign audit event: %w", err)
	}
	if err := s.appendEvent(ctx, event, eventRec); err != nil {
		return nil, err
	}

	return &Decision{
		Matched: false,
		Room:    roomCode,
		Score:   score,
		Reason:  reason,
		Event:   eventRec,
	}, nil
}

// appendEvent seals the actor identifier (when sealing is enabled) and
// persists the signed event. The signature always covers the unsealed
// payload; sealing only protects the indexed actor column at rest.
func (s *Service) appendEvent(ctx context.Context, event audit.Event, rec audit.SignedRecord) error {
	actor, err := s.codec.Seal(event.Actor)
	if err != nil {
		return fmt.Errorf("seal actor field: %w", err)
	}

	if err := s.store.AppendAudit(ctx, database.AuditRow{
		EventID:   event.ID,
		Action:    event.Action,
		Actor:     actor,
		Source:    event.Source,
		Payload:   rec.Payload,
		Signature: rec.Signature,
		CreatedAt: event.Timestamp,
	}); err != nil {
		return fmt.Errorf("persist audit event: %w", err)
	}
	return nil
}

// Enroll vectorizes an image and stores or updates the identity's vector,
// with a signed audit trail for both success and failure.
func (s *Service) Enroll(ctx context.Context, img image.Image, identityID, name, source string) (*database.Identity, error) {
	vector, err := s.vectorizer.Vectorize(ctx, img)
	if err != nil {
		if errors.Is(err, embedding.ErrNoFaceDetected) || errors.Is(err, embedding.ErrInvalidImage) {
			if _, recErr := s.deniedWithoutIdentity(ctx, audit.ActionEnrollFailed, "", source, ReasonNoFace, match.NoScore); recErr != nil {
				return nil, recErr
			}
		}
		return nil, err
	}

	identity := database.Identity{ID: identityID, Name: name, Vector: vector}
	if err := s.store.UpsertIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("upsert identity %s: %w", identityID, err)
	}

	now := s.now()
	event := audit.NewEvent(audit.ActionEnrollSuccess, identityID, source, now, map[string]string{
		"name": name,
	})
	eventRec, err := s.signer.SignRecord(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("sign audit event: %w", err)
	}
	if err := s.appendEvent(ctx, event, eventRec); err != nil {
		return nil, err
	}

	s.log.Info("identity enrolled", zap.String("identity", identityID))
	return &identity, nil
}

// Attendance lists persisted attendance rows for the reporting surface.
func (s *Service) Attendance(ctx context.Context, filter database.AttendanceFilter) ([]database.AttendanceRow, error) {
	return s.store.ListAttendance(ctx, filter)
}
