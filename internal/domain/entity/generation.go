package entity

import "fmt"

// ArtifactKind selects what a provider produces.
type ArtifactKind string

const (
	ArtifactText  ArtifactKind = "text"
	ArtifactImage ArtifactKind = "image"
)

// ImageFormat is the encoded output format requested for image artifacts.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "PNG"
	ImageJPEG ImageFormat = "JPEG"
	ImageWEBP ImageFormat = "WEBP"
)

// IsValid reports whether f is a supported image format.
func (f ImageFormat) IsValid() bool {
	switch f {
	case ImagePNG, ImageJPEG, ImageWEBP:
		return true
	}
	return false
}

// MIME returns the media type of the format.
func (f ImageFormat) MIME() string {
	switch f {
	case ImageJPEG:
		return "image/jpeg"
	case ImageWEBP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// GenerationOptions tune a single provider call. Zero values mean "backend default".
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
	Format      ImageFormat
	Width       int
	Height      int
}

// GenerationRequest is the provider-neutral request contract.
type GenerationRequest struct {
	Prompt  string
	System  string
	Kind    ArtifactKind
	Options GenerationOptions
}

// Validate checks the request before it reaches a backend.
func (r GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return &ValidationError{Field: "prompt", Message: "is required"}
	}
	switch r.Kind {
	case ArtifactText:
	case ArtifactImage:
		if r.Options.Format != "" && !r.Options.Format.IsValid() {
			return &ValidationError{Field: "format", Message: fmt.Sprintf("unsupported image format %q", r.Options.Format)}
		}
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown artifact kind %q", r.Kind)}
	}
	if r.Options.Temperature < 0 || r.Options.Temperature > 2 {
		return &ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}
	return nil
}

// Artifact is what a provider returns: text for text requests, encoded bytes for images.
type Artifact struct {
	Kind     ArtifactKind
	Text     string
	Data     []byte
	MIME     string
	Provider string
	Model    string
}
