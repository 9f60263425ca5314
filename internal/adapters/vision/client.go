// Package vision bridges the face comparison and OCR ports to an HTTP
// vision provider. Response shapes differ between providers, so the
// mapping from provider JSON to port types is driven by configurable
// JMESPath expressions rather than hardcoded structs.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/ekyc-verify/internal/core"
	"github.com/target/ekyc-verify/internal/domain/model"
)

// Default expressions match the provider's native response shape:
// compare-faces returns candidate pairings under FaceMatches, detect-text
// returns LINE-typed detections with normalized bounding boxes.
const (
	DefaultSimilaritiesExpr = "FaceMatches[].Similarity"
	DefaultLinesExpr        = "TextDetections[?Type=='LINE']"
	DefaultLineTextExpr     = "DetectedText"
	DefaultConfidenceExpr   = "Confidence"
	DefaultBoxTopExpr       = "Geometry.BoundingBox.Top"
	DefaultBoxLeftExpr      = "Geometry.BoundingBox.Left"
)

const defaultRequestTimeout = 30 * time.Second

// Evaluator abstracts JMESPath operations for testability.
type Evaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

type jmespathLibEvaluator struct{}

func (jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// Config describes the provider endpoint and the response mapping.
type Config struct {
	// BaseURL is the provider root; compare-faces and detect-text paths are
	// appended to it.
	BaseURL string
	// APIKey, when set, is sent as the X-Api-Key header on every request.
	APIKey string
	// Timeout bounds each provider round trip; defaults to 30s.
	Timeout time.Duration

	// SimilaritiesExpr maps the compare-faces response to a list of
	// similarity scores, best-first.
	SimilaritiesExpr string
	// LinesExpr maps the detect-text response to a list of line objects;
	// the remaining expressions are evaluated against each line.
	LinesExpr      string
	LineTextExpr   string
	ConfidenceExpr string
	BoxTopExpr     string
	BoxLeftExpr    string
}

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	Config     Config
	HTTPClient *http.Client // Optional: defaults to a timeout-bounded client
	Evaluator  Evaluator    // Optional: defaults to the go-jmespath library
	Logger     *slog.Logger // Optional: structured logger
}

// Client implements core.FaceComparer and core.TextDetector over HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	jems   Evaluator
	logger *slog.Logger
}

var (
	_ core.FaceComparer = (*Client)(nil)
	_ core.TextDetector = (*Client)(nil)
)

// NewClient validates the config, compiles the mapping expressions, and
// returns a ready client.
func NewClient(opts ClientOptions) (*Client, error) {
	cfg := opts.Config
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("vision base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid vision base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid vision base URL scheme: %s", u.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	applyDefault(&cfg.SimilaritiesExpr, DefaultSimilaritiesExpr)
	applyDefault(&cfg.LinesExpr, DefaultLinesExpr)
	applyDefault(&cfg.LineTextExpr, DefaultLineTextExpr)
	applyDefault(&cfg.ConfidenceExpr, DefaultConfidenceExpr)
	applyDefault(&cfg.BoxTopExpr, DefaultBoxTopExpr)
	applyDefault(&cfg.BoxLeftExpr, DefaultBoxLeftExpr)

	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	for _, expr := range []string{
		cfg.SimilaritiesExpr, cfg.LinesExpr, cfg.LineTextExpr,
		cfg.ConfidenceExpr, cfg.BoxTopExpr, cfg.BoxLeftExpr,
	} {
		if err := jems.Validate(expr); err != nil {
			return nil, fmt.Errorf("invalid vision mapping expression %q: %w", expr, err)
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "vision_client")
	}

	return &Client{cfg: cfg, http: httpClient, jems: jems, logger: logger}, nil
}

// MustNewClient constructs a new Client and panics on error.
func MustNewClient(opts ClientOptions) *Client {
	client, err := NewClient(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create vision client: %v", err))
	}
	return client
}

// CompareFaces submits the document/selfie pair and maps the provider's
// similarity scores into candidate pairings, preserving order.
func (c *Client) CompareFaces(ctx context.Context, in core.CompareFacesInput) ([]model.FaceMatch, error) {
	payload := map[string]string{
		"bucket":     in.Bucket,
		"source_key": in.SourceKey,
		"target_key": in.TargetKey,
	}
	body, err := c.post(ctx, "/compare-faces", payload)
	if err != nil {
		return nil, err
	}

	raw, err := c.jems.Evaluate(c.cfg.SimilaritiesExpr, body)
	if err != nil {
		return nil, fmt.Errorf("map similarities: %w", err)
	}

	items, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("similarities expression yielded %T, want list", raw)
	}

	matches := make([]model.FaceMatch, 0, len(items))
	for _, item := range items {
		score, ok := asFloat(item)
		if !ok {
			return nil, fmt.Errorf("similarity value %v is not numeric", item)
		}
		matches = append(matches, model.FaceMatch{Similarity: score})
	}
	return matches, nil
}

// DetectText submits the document image and maps the provider's line
// detections into text lines with confidence and normalized geometry.
func (c *Client) DetectText(ctx context.Context, in core.DetectTextInput) ([]model.TextLine, error) {
	payload := map[string]string{
		"bucket": in.Bucket,
		"key":    in.Key,
	}
	body, err := c.post(ctx, "/detect-text", payload)
	if err != nil {
		return nil, err
	}

	raw, err := c.jems.Evaluate(c.cfg.LinesExpr, body)
	if err != nil {
		return nil, fmt.Errorf("map text lines: %w", err)
	}

	items, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("lines expression yielded %T, want list", raw)
	}

	lines := make([]model.TextLine, 0, len(items))
	for i, item := range items {
		line, err := c.mapLine(item)
		if err != nil {
			return nil, fmt.Errorf("map line %d: %w", i, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (c *Client) mapLine(item any) (model.TextLine, error) {
	var line model.TextLine

	text, err := c.jems.Evaluate(c.cfg.LineTextExpr, item)
	if err != nil {
		return line, fmt.Errorf("evaluate text: %w", err)
	}
	s, ok := text.(string)
	if !ok {
		return line, fmt.Errorf("text value %v is not a string", text)
	}
	line.Text = s

	fields := []struct {
		expr string
		dst  *float64
		name string
	}{
		{c.cfg.ConfidenceExpr, &line.Confidence, "confidence"},
		{c.cfg.BoxTopExpr, &line.Box.Top, "box top"},
		{c.cfg.BoxLeftExpr, &line.Box.Left, "box left"},
	}
	for _, f := range fields {
		raw, err := c.jems.Evaluate(f.expr, item)
		if err != nil {
			return line, fmt.Errorf("evaluate %s: %w", f.name, err)
		}
		v, ok := asFloat(raw)
		if !ok {
			return line, fmt.Errorf("%s value %v is not numeric", f.name, raw)
		}
		*f.dst = v
	}
	return line, nil
}

// post sends a JSON request and decodes the JSON response into a generic
// value suitable for JMESPath evaluation.
func (c *Client) post(ctx context.Context, path string, payload any) (any, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal vision request: %w", err)
	}

	endpoint := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision %s: %w", path, err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.DebugContext(ctx, "vision call finished",
			"path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vision %s: unexpected status %d: %s",
			path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	return body, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func applyDefault(target *string, def string) {
	if strings.TrimSpace(*target) == "" {
		*target = def
	}
}
