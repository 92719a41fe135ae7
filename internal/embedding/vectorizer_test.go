package embedding

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// testImage returns a uniform gray image of the given size.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

// fixedDetector always returns the given region.
func fixedDetector(r image.Rectangle) Detector {
	return DetectorFunc(func(_ context.Context, _ image.Image) (*image.Rectangle, error) {
		return &r, nil
	})
}

// missDetector never finds a face.
var missDetector = DetectorFunc(func(_ context.Context, _ image.Image) (*image.Rectangle, error) {
	return nil, nil
})

// captureEmbedder records the tensor it was called with and returns raw.
type captureEmbedder struct {
	raw  []float32
	last *Tensor
}

func (e *captureEmbedder) Embed(_ context.Context, face Tensor) ([]float32, error) {
	e.last = &face
	return e.raw, nil
}

func TestVectorizeInvalidImage(t *testing.T) {
	v := NewVectorizer(&captureEmbedder{raw: []float32{1, 0}}, 2)

	tests := []struct {
		name string
		img  image.Image
	}{
		{name: "nil image", img: nil},
		{name: "zero area", img: image.NewRGBA(image.Rect(0, 0, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Vectorize(context.Background(), tt.img); !errors.Is(err, ErrInvalidImage) {
				t.Errorf("Vectorize = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestVectorizeNoFaceWithoutFallback(t *testing.T) {
	v := NewVectorizer(&captureEmbedder{raw: []float32{1, 0}}, 2,
		WithDetectors(missDetector),
		WithoutFallback(),
	)

	if _, err := v.Vectorize(context.Background(), testImage(200, 200)); !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("Vectorize = %v, want ErrNoFaceDetected", err)
	}
}

func TestVectorizeFallbackCenterCrop(t *testing.T) {
	emb := &captureEmbedder{raw: []float32{3, 4}}
	v := NewVectorizer(emb, 2, WithDetectors(missDetector))

	vec, err := v.Vectorize(context.Background(), testImage(200, 100))
	if err != nil {
		t.Fatalf("Vectorize returned error: %v", err)
	}

	if emb.last == nil {
		t.Fatal("embedder was not called")
	}
	if emb.last.Width != 112 || emb.last.Height != 112 {
		t.Errorf("crop size = %dx%d, want 112x112", emb.last.Width, emb.last.Height)
	}
	if len(emb.last.Data) != 3*112*112 {
		t.Errorf("tensor length = %d, want %d", len(emb.last.Data), 3*112*112)
	}

	// Output must be unit-normalized regardless of the raw model output.
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Errorf("vector norm = %v, want 1.0", math.Sqrt(sum))
	}
}

func TestVectorizeMinFaceSizeFilter(t *testing.T) {
	small := fixedDetector(image.Rect(0, 0, 50, 50))
	big := fixedDetector(image.Rect(0, 0, 120, 120))

	emb := &captureEmbedder{raw: []float32{1, 0}}
	v := NewVectorizer(emb, 2,
		WithDetectors(small, big),
		WithMinFaceSize(60),
		WithoutFallback(),
	)

	if _, err := v.Vectorize(context.Background(), testImage(200, 200)); err != nil {
		t.Fatalf("Vectorize returned error: %v", err)
	}
	// The 50px detection must have been discarded in favor of the next stage.
	if emb.last == nil {
		t.Fatal("embedder was not called")
	}
}

func TestVectorizeDetectorErrorFallsThrough(t *testing.T) {
	failing := DetectorFunc(func(_ context.Context, _ image.Image) (*image.Rectangle, error) {
		return nil, errors.New("service unavailable")
	})

	emb := &captureEmbedder{raw: []float32{1, 0}}
	v := NewVectorizer(emb, 2, WithDetectors(failing))

	if _, err := v.Vectorize(context.Background(), testImage(200, 200)); err != nil {
		t.Fatalf("Vectorize returned error: %v", err)
	}
}

func TestVectorizeDimensionMismatch(t *testing.T) {
	v := NewVectorizer(&captureEmbedder{raw: []float32{1, 0, 0}}, 2)
	if _, err := v.Vectorize(context.Background(), testImage(200, 200)); err == nil {
		t.Error("expected dimension mismatch error, got nil")
	}
}

func TestPreprocessIntensityRange(t *testing.T) {
	face := preprocess(testImage(200, 200), image.Rect(0, 0, 200, 200))
	for i, x := range face.Data {
		if x < -1.0 || x > 1.0 {
			t.Fatalf("intensity out of range at %d: %v", i, x)
		}
	}
	// Uniform gray 128 maps close to the middle of [-1, 1].
	if math.Abs(float64(face.Data[0])) > 0.01 {
		t.Errorf("gray pixel mapped to %v, want ~0", face.Data[0])
	}
}

func TestCenterCropRegion(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		wantSize int
	}{
		{name: "landscape", w: 200, h: 100, wantSize: 60},
		{name: "portrait", w: 100, h: 300, wantSize: 60},
		{name: "square", w: 100, h: 100, wantSize: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := CenterCrop(0.6).Detect(context.Background(), testImage(tt.w, tt.h))
			if err != nil {
				t.Fatalf("Detect returned error: %v", err)
			}
			if r.Dx() != tt.wantSize || r.Dy() != tt.wantSize {
				t.Errorf("crop = %dx%d, want %dx%d", r.Dx(), r.Dy(), tt.wantSize, tt.wantSize)
			}
			// Deterministic: same input, same region.
			r2, _ := CenterCrop(0.6).Detect(context.Background(), testImage(tt.w, tt.h))
			if *r != *r2 {
				t.Errorf("center crop not deterministic: %v vs %v", r, r2)
			}
		})
	}
}
