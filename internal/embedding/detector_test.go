package embedding

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
)

func detectorServer(t *testing.T, resp detectionResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestModelDetectorPicksHighestScore(t *testing.T) {
	srv := detectorServer(t, detectionResponse{Faces: []detectedFace{
		{BBox: []float64{0, 0, 100, 100}, Score: 0.6},
		{BBox: []float64{50, 50, 150, 150}, Score: 0.9},
	}})
	defer srv.Close()

	r, err := NewModelDetector(srv.URL).Detect(context.Background(), testImage(200, 200))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if r == nil {
		t.Fatal("Detect returned nil region")
	}
	want := image.Rect(50, 50, 150, 150)
	if *r != want {
		t.Errorf("region = %v, want %v", r, want)
	}
}

func TestCascadeDetectorPicksLargestArea(t *testing.T) {
	srv := detectorServer(t, detectionResponse{Faces: []detectedFace{
		{BBox: []float64{0, 0, 180, 180}, Score: 0.2},
		{BBox: []float64{0, 0, 90, 90}, Score: 0.99},
	}})
	defer srv.Close()

	r, err := NewCascadeDetector(srv.URL).Detect(context.Background(), testImage(200, 200))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if r == nil {
		t.Fatal("Detect returned nil region")
	}
	want := image.Rect(0, 0, 180, 180)
	if *r != want {
		t.Errorf("region = %v, want %v", r, want)
	}
}

func TestModelDetectorRejectsTinyBoxes(t *testing.T) {
	// Below the 40px false-positive cutoff.
	srv := detectorServer(t, detectionResponse{Faces: []detectedFace{
		{BBox: []float64{0, 0, 30, 30}, Score: 0.99},
	}})
	defer srv.Close()

	r, err := NewModelDetector(srv.URL).Detect(context.Background(), testImage(200, 200))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if r != nil {
		t.Errorf("region = %v, want nil for tiny detection", r)
	}
}

func TestModelDetectorNoFaces(t *testing.T) {
	srv := detectorServer(t, detectionResponse{})
	defer srv.Close()

	r, err := NewModelDetector(srv.URL).Detect(context.Background(), testImage(200, 200))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if r != nil {
		t.Errorf("region = %v, want nil", r)
	}
}

func TestModelDetectorClampsToBounds(t *testing.T) {
	srv := detectorServer(t, detectionResponse{Faces: []detectedFace{
		{BBox: []float64{-20, -20, 150, 150}, Score: 0.8},
	}})
	defer srv.Close()

	r, err := NewModelDetector(srv.URL).Detect(context.Background(), testImage(200, 200))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if r == nil {
		t.Fatal("Detect returned nil region")
	}
	want := image.Rect(0, 0, 150, 150)
	if *r != want {
		t.Errorf("region = %v, want %v", r, want)
	}
}

func TestRemoteDetectorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewModelDetector(srv.URL).Detect(context.Background(), testImage(200, 200)); err == nil {
		t.Error("expected error for 500 response, got nil")
	}
}
