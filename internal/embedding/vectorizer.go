package embedding

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var (
	// ErrInvalidImage means the input could not be used at all (nil or zero area).
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoFaceDetected means no usable face region was found after the full
	// detector chain. With the center-crop fallback enabled this never happens.
	ErrNoFaceDetected = errors.New("no face detected")
)

// cropSize is the canonical input size of the embedding model.
const cropSize = 112

// centerCropFraction is the share of the shorter image dimension used by the
// last-resort fallback region.
const centerCropFraction = 0.6

// Vectorizer produces identity vectors from decoded images. It is safe for
// concurrent use: detectors and the embedder are stateless clients, built
// once and never mutated.
type Vectorizer struct {
	detectors   []Detector
	fallback    Detector // tried last, exempt from the min-size filter; nil disables it
	embedder    Embedder
	minFaceSize int
	dim         int
}

// Option configures a Vectorizer.
type Option func(*Vectorizer)

// WithDetectors sets the ordered detector chain.
func WithDetectors(detectors ...Detector) Option {
	return func(v *Vectorizer) { v.detectors = detectors }
}

// WithoutFallback disables the center-crop fallback, so an image with no
// detectable face fails with ErrNoFaceDetected instead of vectorizing
// background.
func WithoutFallback() Option {
	return func(v *Vectorizer) { v.fallback = nil }
}

// WithMinFaceSize sets the minimum accepted detection edge in pixels.
func WithMinFaceSize(px int) Option {
	return func(v *Vectorizer) { v.minFaceSize = px }
}

// NewVectorizer creates a vectorizer with the default center-crop fallback
// enabled. dim is the expected embedding dimension.
func NewVectorizer(embedder Embedder, dim int, opts ...Option) *Vectorizer {
	v := &Vectorizer{
		fallback:    CenterCrop(centerCropFraction),
		embedder:    embedder,
		minFaceSize: 60,
		dim:         dim,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Vectorize locates a face in img, preprocesses it and returns a unit-length
// identity vector. Pure function of the image and the loaded model.
func (v *Vectorizer) Vectorize(ctx context.Context, img image.Image) (Vector, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidImage
	}

	region, err := v.locate(ctx, img)
	if err != nil {
		return nil, err
	}

	face := preprocess(img, *region)

	raw, err := v.embedder.Embed(ctx, face)
	if err != nil {
		return nil, fmt.Errorf("embedding inference failed: %w", err)
	}
	if v.dim > 0 && len(raw) != v.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(raw), v.dim)
	}

	return Normalize(raw), nil
}

// locate runs the detector chain in order, discarding detections smaller
// than the configured minimum size. The fallback is exempt from that filter.
func (v *Vectorizer) locate(ctx context.Context, img image.Image) (*image.Rectangle, error) {
	for _, det := range v.detectors {
		r, err := det.Detect(ctx, img)
		if err != nil || r == nil {
			// A failing detector stage is a miss, not a fatal error.
			continue
		}
		if r.Dx() < v.minFaceSize || r.Dy() < v.minFaceSize {
			continue
		}
		return r, nil
	}

	if v.fallback == nil {
		return nil, ErrNoFaceDetected
	}
	return v.fallback.Detect(ctx, img)
}

// preprocess crops the region, resizes it to the canonical square and
// rescales pixel intensities from [0,255] to [-1,1] in CHW layout.
func preprocess(img image.Image, region image.Rectangle) Tensor {
	region = region.Intersect(img.Bounds())

	resized := image.NewRGBA(image.Rect(0, 0, cropSize, cropSize))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, region, draw.Over, nil)

	data := make([]float32, 3*cropSize*cropSize)
	plane := cropSize * cropSize
	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {
			i := resized.PixOffset(x, y)
			px := y*cropSize + x
			data[px] = (float32(resized.Pix[i]) - 127.5) / 127.5
			data[plane+px] = (float32(resized.Pix[i+1]) - 127.5) / 127.5
			data[2*plane+px] = (float32(resized.Pix[i+2]) - 127.5) / 127.5
		}
	}

	return Tensor{Data: data, Width: cropSize, Height: cropSize}
}
