package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"net/http"
	"strconv"
	"time"

	// Decoders for the snapshot formats door devices send.
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/embedding"
	"github.com/facegate/facegate/internal/gate"
)

// GateHandler serves verification, enrollment and attendance endpoints.
type GateHandler struct {
	service *gate.Service
	log     *zap.Logger
}

// NewGateHandler creates a new gate handler.
func NewGateHandler(service *gate.Service, log *zap.Logger) *GateHandler {
	return &GateHandler{service: service, log: log}
}

type verifyRequest struct {
	Image  string `json:"image"` // base64-encoded JPEG or PNG snapshot
	Room   string `json:"room"`
	Source string `json:"source"`
}

type identityResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type verifyResponse struct {
	Matched    bool              `json:"matched"`
	Authorized bool              `json:"authorized"`
	Identity   *identityResponse `json:"identity,omitempty"`
	Room       string            `json:"room"`
	Score      float64           `json:"score"`
	Reason     string            `json:"reason"`
	Signature  string            `json:"signature"`
}

// decodeSnapshot turns a base64 payload into a decoded image.
func decodeSnapshot(encoded string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}

// Verify runs one verification attempt for a door device snapshot.
func (h *GateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Room == "" {
		respondError(w, http.StatusBadRequest, "room is required")
		return
	}

	img, err := decodeSnapshot(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image could not be decoded")
		return
	}

	decision, err := h.service.Verify(r.Context(), img, req.Room, req.Source)
	if errors.Is(err, embedding.ErrInvalidImage) {
		respondError(w, http.StatusBadRequest, "image could not be used")
		return
	}
	if err != nil {
		h.log.Error("verification failed", zap.Error(err), zap.String("room", sanitizeForLog(req.Room)))
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	resp := verifyResponse{
		Matched:    decision.Matched,
		Authorized: decision.Authorized,
		Room:       decision.Room,
		Score:      decision.Score,
		Reason:     decision.Reason,
		Signature:  decision.Event.Signature,
	}
	if decision.Identity != nil {
		resp.Identity = &identityResponse{ID: decision.Identity.ID, Name: decision.Identity.Name}
	}
	respondJSON(w, http.StatusOK, resp)
}

type enrollRequest struct {
	Image      string `json:"image"`
	IdentityID string `json:"identity_id"`
	Name       string `json:"name"`
	Source     string `json:"source"`
}

// Enroll registers or updates an identity from a snapshot.
func (h *GateHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.IdentityID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "identity_id and name are required")
		return
	}

	img, err := decodeSnapshot(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image could not be decoded")
		return
	}

	identity, err := h.service.Enroll(r.Context(), img, req.IdentityID, req.Name, req.Source)
	if errors.Is(err, embedding.ErrNoFaceDetected) || errors.Is(err, embedding.ErrInvalidImage) {
		respondError(w, http.StatusUnprocessableEntity, "no usable face in image")
		return
	}
	if err != nil {
		h.log.Error("enrollment failed", zap.Error(err), zap.String("identity", sanitizeForLog(req.IdentityID)))
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}

	respondJSON(w, http.StatusCreated, identityResponse{ID: identity.ID, Name: identity.Name})
}

type attendanceItem struct {
	IdentityID   string  `json:"identity_id"`
	IdentityName string  `json:"identity_name"`
	Room         string  `json:"room"`
	Status       string  `json:"status"`
	Confidence   float64 `json:"confidence"`
	Signature    string  `json:"signature"`
	CreatedAt    string  `json:"created_at"`
}

// Attendance lists recent attendance records, newest first. Supports q
// (identity id or diacritic-insensitive name), status and limit parameters.
func (h *GateHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	filter := database.AttendanceFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	rows, err := h.service.Attendance(r.Context(), filter)
	if err != nil {
		h.log.Error("attendance listing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "attendance listing failed")
		return
	}

	items := make([]attendanceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, attendanceItem{
			IdentityID:   row.IdentityID,
			IdentityName: row.IdentityName,
			Room:         row.RoomCode,
			Status:       row.Status,
			Confidence:   row.Confidence,
			Signature:    row.Signature,
			CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": items})
}
