package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"astrofeed/internal/domain/entity"
	"astrofeed/internal/resilience/retry"
)

// RunwareURL is the Runware task endpoint.
const RunwareURL = "https://api.runware.ai/v1"

// maxImageResponse caps the response body; base64 images run to a few MB.
const maxImageResponse = 32 << 20

// RunwareConfig configures the Runware image inference backend.
type RunwareConfig struct {
	APIKey string
	Model  string
	URL    string

	// Width and Height are used when a request leaves them zero.
	// Runware requires multiples of 64.
	Width  int
	Height int

	HTTPClient *http.Client
}

// Runware produces images through Runware's imageInference task.
type Runware struct {
	cfg        RunwareConfig
	httpClient *http.Client
}

// NewRunware creates a Runware backend.
func NewRunware(cfg RunwareConfig) *Runware {
	if cfg.URL == "" {
		cfg.URL = RunwareURL
	}
	if cfg.Width == 0 {
		cfg.Width = 1024
	}
	if cfg.Height == 0 {
		cfg.Height = 1024
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	slog.Info("initialized image provider",
		slog.String("provider", "runware"),
		slog.String("model", cfg.Model))

	return &Runware{cfg: cfg, httpClient: client}
}

// Name implements Backend.
func (r *Runware) Name() string { return "runware" }

type runwareTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	Model          string `json:"model"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumberResults  int    `json:"numberResults"`
	OutputType     string `json:"outputType"`
	OutputFormat   string `json:"outputFormat"`
}

type runwareResponse struct {
	Data []struct {
		TaskType        string `json:"taskType"`
		TaskUUID        string `json:"taskUUID"`
		ImageBase64Data string `json:"imageBase64Data"`
	} `json:"data"`
	Errors []struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		TaskUUID string `json:"taskUUID"`
	} `json:"errors"`
}

// Generate implements Backend.
func (r *Runware) Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error) {
	if req.Kind != entity.ArtifactImage {
		return entity.Artifact{}, entity.NewProviderError(r.Name(), entity.ErrProviderRejected,
			fmt.Errorf("unsupported artifact kind %q", req.Kind))
	}

	format := req.Options.Format
	if format == "" {
		format = entity.ImagePNG
	}
	width, height := req.Options.Width, req.Options.Height
	if width == 0 {
		width = r.cfg.Width
	}
	if height == 0 {
		height = r.cfg.Height
	}

	task := runwareTask{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		PositivePrompt: req.Prompt,
		Model:          r.cfg.Model,
		Width:          width,
		Height:         height,
		NumberResults:  1,
		OutputType:     "base64Data",
		OutputFormat:   string(format),
	}

	body, err := r.post(ctx, []runwareTask{task})
	if err != nil {
		return entity.Artifact{}, err
	}

	var out runwareResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return entity.Artifact{}, fmt.Errorf("decode runware response: %w", err)
	}
	if len(out.Errors) > 0 {
		return entity.Artifact{}, entity.NewProviderError(r.Name(), entity.ErrProviderRejected,
			fmt.Errorf("runware %s: %s", out.Errors[0].Code, out.Errors[0].Message))
	}

	for _, d := range out.Data {
		if d.TaskUUID != task.TaskUUID || d.ImageBase64Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(stripDataURI(d.ImageBase64Data))
		if err != nil {
			return entity.Artifact{}, fmt.Errorf("decode runware image: %w", err)
		}
		return entity.Artifact{
			Kind:     entity.ArtifactImage,
			Data:     data,
			MIME:     format.MIME(),
			Provider: r.Name(),
			Model:    r.cfg.Model,
		}, nil
	}

	return entity.Artifact{}, fmt.Errorf("runware task %s: %w", task.TaskUUID, errEmptyResponse)
}

// post sends tasks and returns the body of a 2xx response. A non-2xx
// response comes back as *retry.HTTPError.
func (r *Runware) post(ctx context.Context, tasks []runwareTask) ([]byte, error) {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal runware tasks: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageResponse))
	if err != nil {
		return nil, fmt.Errorf("read runware response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("runware api error: %s", truncateBody(body)),
		}
	}
	return body, nil
}

func stripDataURI(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

func truncateBody(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
