package config

import (
	"strings"
	"time"
)

// VisionConfig contains the vision provider endpoint and response mapping.
// The mapping expressions are JMESPath; their defaults live with the client
// and match the provider's native response shape.
type VisionConfig struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// SimilaritiesExpr maps the compare-faces response to a list of
	// similarity scores, best-first.
	SimilaritiesExpr string `env:"SIMILARITIES_EXPR"`

	// LinesExpr maps the detect-text response to a list of line objects;
	// the per-line expressions below are evaluated against each one.
	LinesExpr      string `env:"LINES_EXPR"`
	LineTextExpr   string `env:"LINE_TEXT_EXPR"`
	ConfidenceExpr string `env:"CONFIDENCE_EXPR"`
	BoxTopExpr     string `env:"BOX_TOP_EXPR"`
	BoxLeftExpr    string `env:"BOX_LEFT_EXPR"`
}

// Sanitize normalises vision configuration values.
func (v *VisionConfig) Sanitize() {
	v.BaseURL = strings.TrimSpace(v.BaseURL)
	v.APIKey = strings.TrimSpace(v.APIKey)
	if v.Timeout <= 0 {
		v.Timeout = 30 * time.Second
	}
}
