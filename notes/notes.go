// Package notes produces the short free-text note a freelancer attaches to a bid.
// Notes are decoration only; nothing downstream scores or ranks on them.
package notes

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by generators that are not configured.
var ErrUnavailable = errors.New("note generator unavailable")

// Generator turns a prompt into note text.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Nop is the generator used when note generation is disabled.
type Nop struct{}

func (Nop) Generate(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Nop) Enabled() bool { return false }

// Enabled reports whether gen can produce notes at all. A generator opts out
// by implementing Enabled() bool; wrappers should forward it.
func Enabled(gen Generator) bool {
	if gen == nil {
		return false
	}
	if e, ok := gen.(interface{ Enabled() bool }); ok {
		return e.Enabled()
	}
	return true
}

// Config selects and configures the generator.
type Config struct {
	Enabled bool
	Model   string
	BaseURL string
}

// NewFromConfig returns an Ollama client when notes are enabled and Nop otherwise.
func NewFromConfig(cfg Config) Generator {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewOllamaClient(cfg.BaseURL, cfg.Model)
}
