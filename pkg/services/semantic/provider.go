package semantic

import (
	"context"
	"errors"

	"github.com/de-tools/redflag/pkg/models/domain"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Provider is one external semantic analyzer. Analyze returns findings whose
// Source is the provider name, or an error that the caller treats as zero findings.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, text string) ([]domain.Finding, error)
}

// Completer performs a single prompt/response round trip against a vendor API.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
