// Package ai wraps the Gemini endpoints the dashboard relies on: SMS/UPI
// notification categorization, receipt scanning, and budget advice. The
// calls are thin; the Go-side contracts (timeouts, partial extraction,
// JSON hygiene) live here.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used for every flow.
	DefaultModel = "gemini-2.0-flash"

	// DefaultScanTimeout caps a receipt scan; past it the attempt is a
	// terminal failure with no automatic retry.
	DefaultScanTimeout = 5 * time.Second
)

var (
	// ErrScanTimeout reports that a receipt scan exceeded the client-side
	// deadline.
	ErrScanTimeout = errors.New("receipt scan timed out")

	// ErrPartialExtraction reports that the model could not extract every
	// required field. Callers surface it as "add the details manually",
	// never as a silent default.
	ErrPartialExtraction = errors.New("could not extract full details")

	// ErrEmptyResponse reports that the model returned no text.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrInvalidDataURI reports a receipt image that is not a base64
	// data URI.
	ErrInvalidDataURI = errors.New("invalid data URI")
)

// Generator is the minimal model surface the flows need; it isolates the
// SDK so tests can substitute a fake.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateFromImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

// Config holds client configuration.
type Config struct {
	APIKey      string
	Model       string
	ScanTimeout time.Duration
}

// Client runs the three dashboard AI flows against a Generator.
type Client struct {
	gen         Generator
	scanTimeout time.Duration
}

// NewClient creates a Gemini-backed client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return New(&geminiGenerator{client: sdk, model: cfg.Model}, cfg.ScanTimeout), nil
}

// New wires a Client around any Generator.
func New(gen Generator, scanTimeout time.Duration) *Client {
	if scanTimeout <= 0 {
		scanTimeout = DefaultScanTimeout
	}
	return &Client{gen: gen, scanTimeout: scanTimeout}
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	return g.generate(ctx, contents)
}

func (g *geminiGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			},
		},
	}
	return g.generate(ctx, contents)
}

func (g *geminiGenerator) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
