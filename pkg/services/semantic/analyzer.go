package semantic

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one provider call.
type Outcome struct {
	Provider string
	Findings []domain.Finding
	Err      error
	Duration time.Duration
}

// Analyzer fans a document out to every selected provider concurrently.
// A failing provider contributes zero findings; it never fails the fan-out.
type Analyzer struct {
	providers []Provider
	timeout   time.Duration
}

// NewAnalyzer keeps providers in the given order. A zero timeout disables the
// per-provider deadline.
func NewAnalyzer(timeout time.Duration, providers ...Provider) (*Analyzer, error) {
	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("provider cannot be nil")
		}
		if _, exists := seen[p.Name()]; exists {
			return nil, fmt.Errorf("duplicate provider: %s", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return &Analyzer{providers: providers, timeout: timeout}, nil
}

// BuildAnalyzer creates a provider per configuration. Providers that cannot
// be created are logged and left out.
func BuildAnalyzer(ctx context.Context, reg Registry, configs []config.ProviderConfig, timeout time.Duration) (*Analyzer, error) {
	logger := zerolog.Ctx(ctx)

	providers := make([]Provider, 0, len(configs))
	for _, pc := range configs {
		p, err := reg.Create(ctx, pc)
		if err != nil {
			logger.Warn().Err(err).Str("provider", pc.Name).Msg("skipping semantic provider")
			continue
		}
		providers = append(providers, p)
	}
	return NewAnalyzer(timeout, providers...)
}

// Names returns the provider names in registration order.
func (a *Analyzer) Names() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Name())
	}
	return names
}

// Select returns the providers with the given names, in registration order.
// No names selects every provider.
func (a *Analyzer) Select(names ...string) ([]Provider, error) {
	if len(names) == 0 {
		return a.providers, nil
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	selected := make([]Provider, 0, len(names))
	for _, p := range a.providers {
		if _, ok := wanted[p.Name()]; ok {
			selected = append(selected, p)
			delete(wanted, p.Name())
		}
	}
	for _, n := range names {
		if _, missing := wanted[n]; missing {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, n)
		}
	}
	return selected, nil
}

// Analyze runs the named providers (all when none are named) and returns one
// Outcome per provider in registration order, whatever order they finish in.
func (a *Analyzer) Analyze(ctx context.Context, text string, names ...string) ([]Outcome, error) {
	providers, err := a.Select(names...)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	outcomes := make([]Outcome, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			callCtx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}

			start := time.Now()
			findings, err := p.Analyze(callCtx, text)
			outcomes[i] = Outcome{
				Provider: p.Name(),
				Findings: findings,
				Err:      err,
				Duration: time.Since(start),
			}
			if err != nil {
				outcomes[i].Findings = nil
				logger.Warn().Err(err).Str("provider", p.Name()).Msg("semantic provider failed")
				return nil
			}
			logger.Debug().Str("provider", p.Name()).Int("findings", len(findings)).
				Dur("duration", outcomes[i].Duration).Msg("semantic provider finished")
			return nil
		})
	}
	// goroutines never return errors: failures are recorded per outcome
	_ = g.Wait()

	return outcomes, nil
}

// Findings concatenates the findings of successful outcomes in order.
func Findings(outcomes []Outcome) []domain.Finding {
	out := []domain.Finding{}
	for _, o := range outcomes {
		if o.Err == nil {
			out = append(out, o.Findings...)
		}
	}
	return out
}

// Close releases providers that hold clients.
func (a *Analyzer) Close() error {
	var firstErr error
	for _, p := range a.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
