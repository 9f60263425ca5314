package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeVerifier runs the verification trigger consumer.
	ServiceModeVerifier ServiceMode = "verifier"
	// ServiceModeSeeder creates a sample verification job on startup.
	// Development only.
	ServiceModeSeeder ServiceMode = "seeder"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeVerifier, ServiceModeSeeder}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeVerifier, ServiceModeSeeder:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: verifier, seeder)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// VerifierConfig contains verification pipeline configuration.
type VerifierConfig struct {
	// RunTimeout bounds total wall-clock time for one pipeline run.
	RunTimeout time.Duration `env:"VERIFIER_RUN_TIMEOUT" envDefault:"2m"`

	// PersistTimeout bounds each best-effort status write.
	PersistTimeout time.Duration `env:"VERIFIER_PERSIST_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to verifier configuration values.
func (v *VerifierConfig) Sanitize() {
	if v.RunTimeout < 10*time.Second {
		v.RunTimeout = 10 * time.Second
	}
	if v.PersistTimeout < time.Second {
		v.PersistTimeout = time.Second
	}
}

// QueueConfig contains trigger queue configuration.
type QueueConfig struct {
	// Name is the queue the verification triggers flow through.
	Name string `env:"QUEUE_NAME" envDefault:"ekyc"`

	// Concurrency is the number of concurrent verification runs.
	Concurrency int `env:"QUEUE_CONCURRENCY" envDefault:"4"`

	// MaxRetry is the number of redelivery attempts for a failed trigger.
	MaxRetry int `env:"QUEUE_MAX_RETRY" envDefault:"3"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	q.Name = strings.TrimSpace(q.Name)
	if q.Name == "" {
		q.Name = "ekyc"
	}
	if q.Concurrency < 1 {
		q.Concurrency = 1
	}
	if q.MaxRetry < 0 {
		q.MaxRetry = 0
	}
}

// DocumentsConfig identifies where uploaded verification documents live.
type DocumentsConfig struct {
	// Bucket is the default document bucket for newly created jobs.
	Bucket string `env:"DOCUMENTS_BUCKET" envDefault:"ekyc-documents"`
}

// Sanitize applies guardrails to document storage configuration values.
func (d *DocumentsConfig) Sanitize() {
	d.Bucket = strings.TrimSpace(d.Bucket)
	if d.Bucket == "" {
		d.Bucket = "ekyc-documents"
	}
}
