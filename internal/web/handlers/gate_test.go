package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/audit"
	"github.com/facegate/facegate/internal/authz"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/mock"
	"github.com/facegate/facegate/internal/embedding"
	"github.com/facegate/facegate/internal/gate"
)

const testDim = 512

func encodedSnapshot(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 160))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestHandler(t *testing.T, store *mock.Store) *GateHandler {
	t.Helper()

	embedder := embedding.EmbedderFunc(func(_ context.Context, _ embedding.Tensor) ([]float32, error) {
		v := make([]float32, testDim)
		v[0] = 1
		return v, nil
	})
	detector := embedding.DetectorFunc(func(_ context.Context, img image.Image) (*image.Rectangle, error) {
		r := img.Bounds()
		return &r, nil
	})

	signer, err := audit.NewSigner([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	at := time.Date(2024, 5, 14, 10, 0, 0, 0, time.Local)
	service, err := gate.New(gate.Config{
		Vectorizer: embedding.NewVectorizer(embedder, testDim, embedding.WithDetectors(detector)),
		Authorizer: &authz.Authorizer{Now: func() time.Time { return at }},
		Signer:     signer,
		Store:      store,
		Threshold:  0.35,
		Now:        func() time.Time { return at },
	})
	if err != nil {
		t.Fatalf("gate.New: %v", err)
	}

	return NewGateHandler(service, zap.NewNop())
}

func seedIdentity(t *testing.T, store *mock.Store) {
	t.Helper()
	ctx := context.Background()

	vec := make(embedding.Vector, testDim)
	vec[0] = 1
	if err := store.UpsertIdentity(ctx, database.Identity{ID: "S100", Name: "Alice", Vector: vec}); err != nil {
		t.Fatalf("UpsertIdentity: %v", err)
	}
	if err := store.UpsertRoom(ctx, database.Room{Code: "R1", Name: "Lab"}); err != nil {
		t.Fatalf("UpsertRoom: %v", err)
	}
	if err := store.UpsertPolicy(ctx, database.AccessPolicy{IdentityID: "S100", RoomCode: "R1", Allowed: true}); err != nil {
		t.Fatalf("UpsertPolicy: %v", err)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	store := mock.New()
	seedIdentity(t, store)
	handler := newTestHandler(t, store)

	body, _ := json.Marshal(map[string]string{
		"image":  encodedSnapshot(t),
		"room":   "R1",
		"source": "door-cam-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Matched || !resp.Authorized || resp.Identity == nil || resp.Identity.ID != "S100" {
		t.Errorf("response = %+v, want authorized match for S100", resp)
	}
	if resp.Reason != string(authz.ReasonAuthorized) || resp.Signature == "" {
		t.Errorf("reason = %q, signature = %q", resp.Reason, resp.Signature)
	}
}

func TestVerifyEndpointRejectsBadInput(t *testing.T) {
	handler := newTestHandler(t, mock.New())

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{not-json", http.StatusBadRequest},
		{"missing room", `{"image": "aGk="}`, http.StatusBadRequest},
		{"bad image payload", `{"image": "aGk=", "room": "R1"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.Verify(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestEnrollEndpoint(t *testing.T) {
	store := mock.New()
	handler := newTestHandler(t, store)

	body, _ := json.Marshal(map[string]string{
		"image":       encodedSnapshot(t),
		"identity_id": "S200",
		"name":        "Bob",
		"source":      "admin-cli",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Enroll(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	identity, err := store.GetIdentity(context.Background(), "S200")
	if err != nil || identity == nil {
		t.Fatalf("GetIdentity = (%+v, %v)", identity, err)
	}
	if len(identity.Vector) != testDim {
		t.Errorf("vector dim = %d, want %d", len(identity.Vector), testDim)
	}
}

func TestEnrollEndpointRequiresIdentity(t *testing.T) {
	handler := newTestHandler(t, mock.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll", strings.NewReader(`{"image": "aGk="}`))
	rec := httptest.NewRecorder()
	handler.Enroll(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAttendanceEndpoint(t *testing.T) {
	store := mock.New()
	now := time.Now()
	for _, row := range []database.AttendanceRow{
		{IdentityID: "S100", IdentityName: "Alice", RoomCode: "R1", Status: "IN", Confidence: 0.91, Payload: audit.Payload{}, Signature: "sig-a", CreatedAt: now},
		{IdentityID: "S101", IdentityName: "Bob", RoomCode: "R1", Status: "FORBIDDEN", Confidence: 0.88, Payload: audit.Payload{}, Signature: "sig-b", CreatedAt: now},
	} {
		if err := store.AppendAttendance(context.Background(), row); err != nil {
			t.Fatalf("AppendAttendance: %v", err)
		}
	}
	handler := newTestHandler(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?status=FORBIDDEN", nil)
	rec := httptest.NewRecorder()
	handler.Attendance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Records []attendanceItem `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].IdentityID != "S101" {
		t.Errorf("records = %+v, want only S101", resp.Records)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/attendance?limit=bogus", nil)
	rec = httptest.NewRecorder()
	handler.Attendance(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid limit", rec.Code)
	}
}
