package provider

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/utils/text"
)

// NoOp is a local backend that answers deterministically without network
// access. Useful for development and tests.
type NoOp struct{}

// NewNoOp creates a new NoOp backend.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Name implements Backend.
func (n *NoOp) Name() string { return "noop" }

// Generate returns text echoing the prompt, or a small solid PNG whose colour
// is derived from the prompt.
func (n *NoOp) Generate(_ context.Context, req entity.GenerationRequest) (entity.Artifact, error) {
	if req.Kind == entity.ArtifactImage {
		data, err := solidPNG(req.Prompt)
		if err != nil {
			return entity.Artifact{}, err
		}
		return entity.Artifact{
			Kind:     entity.ArtifactImage,
			Data:     data,
			MIME:     entity.ImagePNG.MIME(),
			Provider: n.Name(),
			Model:    "noop",
		}, nil
	}

	body := fmt.Sprintf("Placeholder content.\nPrompt: %s.", text.Truncate(req.Prompt, 200))
	return entity.Artifact{
		Kind:     entity.ArtifactText,
		Text:     body,
		MIME:     "text/plain",
		Provider: n.Name(),
		Model:    "noop",
	}, nil
}

func solidPNG(seed string) ([]byte, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder image: %w", err)
	}
	return buf.Bytes(), nil
}
