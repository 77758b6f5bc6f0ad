package provider_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/infra/provider"
)

func TestNoOp_GenerateText(t *testing.T) {
	n := provider.NewNoOp()
	req := entity.GenerationRequest{Prompt: "Horoscope for Virgo", Kind: entity.ArtifactText}

	first, err := n.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := n.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Text, "Horoscope for Virgo")
	assert.Equal(t, "noop", first.Provider)
}

func TestNoOp_GenerateImage(t *testing.T) {
	n := provider.NewNoOp()

	art, err := n.Generate(context.Background(), entity.GenerationRequest{Prompt: "Mars", Kind: entity.ArtifactImage})
	require.NoError(t, err)
	assert.Equal(t, "image/png", art.MIME)

	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	other, err := n.Generate(context.Background(), entity.GenerationRequest{Prompt: "Venus", Kind: entity.ArtifactImage})
	require.NoError(t, err)
	assert.NotEqual(t, art.Data, other.Data)
}
