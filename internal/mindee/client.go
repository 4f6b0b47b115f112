package mindee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Config holds the prediction-service connection settings. The API key is
// passed in explicitly; nothing here is read from ambient state.
type Config struct {
	APIKey  string
	BaseURL string // default https://api.mindee.net/v1
	Timeout time.Duration
}

// Client submits receipt images to the remote document-understanding service
// and returns the raw prediction JSON. It performs no field interpretation;
// that belongs to the parse package.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mindee.net/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// predictPath is the expense-receipts product endpoint.
const predictPath = "/products/mindee/expense_receipts/v5/predict"

// ParseReceipt uploads the image bytes and returns the prediction object from
// the response envelope, still as raw JSON.
func (c *Client) ParseReceipt(ctx context.Context, image []byte, filename string) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	url := c.cfg.BaseURL + predictPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.Info("mindee.request",
		"req_id", rid,
		"filename", filename,
		"image_bytes", len(image),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("mindee.send_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("mindee.response_body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.log.Info("mindee.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("mindee status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	// Envelope: {"document": {"inference": {"prediction": {...}}}}
	var env struct {
		Document struct {
			Inference struct {
				Prediction json.RawMessage `json:"prediction"`
			} `json:"inference"`
		} `json:"document"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Document.Inference.Prediction) == 0 {
		return nil, fmt.Errorf("envelope missing prediction")
	}
	return env.Document.Inference.Prediction, nil
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
