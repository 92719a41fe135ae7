package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
)

// minDetectionEdge rejects tiny detector boxes as likely false positives.
const minDetectionEdge = 40

// Detector locates a face region in an image. Implementations return nil
// when no plausible face is found. Detectors are tried in order until one
// succeeds, so new strategies can be added without touching the callers.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (*image.Rectangle, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) (*image.Rectangle, error)

func (f DetectorFunc) Detect(ctx context.Context, img image.Image) (*image.Rectangle, error) {
	return f(ctx, img)
}

type detectedFace struct {
	BBox  []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	Score float64   `json:"score"`
}

type detectionResponse struct {
	Faces []detectedFace `json:"faces"`
}

// RemoteDetector calls a face detection service over HTTP.
// Mode controls which candidate box wins when the service returns several.
type RemoteDetector struct {
	baseURL string
	mode    selectMode
	client  *http.Client
}

type selectMode int

const (
	selectHighestScore selectMode = iota // learned detector: best confidence
	selectLargestArea                    // classical cascade: biggest box
)

// NewModelDetector creates a detector backed by a learned face detection
// service. The highest-confidence box wins; boxes smaller than 40px on
// either edge are rejected.
func NewModelDetector(baseURL string) *RemoteDetector {
	return &RemoteDetector{baseURL: baseURL, mode: selectHighestScore, client: &http.Client{}}
}

// NewCascadeDetector creates a detector backed by a classical cascade
// service. The largest detection wins.
func NewCascadeDetector(baseURL string) *RemoteDetector {
	return &RemoteDetector{baseURL: baseURL, mode: selectLargestArea, client: &http.Client{}}
}

func (d *RemoteDetector) Detect(ctx context.Context, img image.Image) (*image.Rectangle, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image for detection: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection service returned status %d", resp.StatusCode)
	}

	var dr detectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode detection response: %w", err)
	}

	return d.pick(dr, img.Bounds()), nil
}

// pick selects the winning box and clamps it to the image bounds.
func (d *RemoteDetector) pick(dr detectionResponse, bounds image.Rectangle) *image.Rectangle {
	var best *image.Rectangle
	var bestKey float64

	for _, f := range dr.Faces {
		if len(f.BBox) != 4 {
			continue
		}
		r := image.Rect(int(f.BBox[0]), int(f.BBox[1]), int(f.BBox[2]), int(f.BBox[3]))
		r = r.Intersect(bounds)
		if r.Dx() < minDetectionEdge || r.Dy() < minDetectionEdge {
			continue
		}

		key := f.Score
		if d.mode == selectLargestArea {
			key = float64(r.Dx() * r.Dy())
		}
		if best == nil || key > bestKey {
			rc := r
			best = &rc
			bestKey = key
		}
	}

	return best
}

// CenterCrop returns a detector that always succeeds with a square region
// occupying the given fraction of the shorter image dimension, centered.
// It guarantees the pipeline never aborts for lack of a detector, at the
// cost of possibly vectorizing background instead of a face.
func CenterCrop(fraction float64) Detector {
	return DetectorFunc(func(_ context.Context, img image.Image) (*image.Rectangle, error) {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()

		short := w
		if h < short {
			short = h
		}
		size := int(float64(short) * fraction)
		if size < 1 {
			size = 1
		}

		x1 := b.Min.X + (w-size)/2
		y1 := b.Min.Y + (h-size)/2
		r := image.Rect(x1, y1, x1+size, y1+size)
		return &r, nil
	})
}
