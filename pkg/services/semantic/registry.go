package semantic

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/de-tools/redflag/pkg/services/config"
)

// CompleterFactory creates a vendor Completer from a provider configuration
type CompleterFactory func(ctx context.Context, pc config.ProviderConfig) (Completer, error)

// Registry manages vendor completer factories
type Registry interface {
	// Register adds a factory for a vendor kind
	Register(kind domain.ProviderKind, factory CompleterFactory) error
	// Create instantiates a provider for pc.Kind
	Create(ctx context.Context, pc config.ProviderConfig) (Provider, error)
	// Kinds returns the registered vendor kinds, sorted
	Kinds() []domain.ProviderKind
}

type registry struct {
	mu        sync.RWMutex
	factories map[domain.ProviderKind]CompleterFactory
	opts      LLMOptions
}

// NewRegistry creates an empty registry
func NewRegistry(opts LLMOptions) Registry {
	return &registry{
		factories: make(map[domain.ProviderKind]CompleterFactory),
		opts:      opts,
	}
}

// DefaultRegistry returns a registry with the OpenAI, Anthropic and Gemini vendors.
func DefaultRegistry() Registry {
	r := NewRegistry(LLMOptions{})
	// registration cannot fail on a fresh registry with distinct kinds
	_ = r.Register(domain.ProviderKindOpenAI, func(_ context.Context, pc config.ProviderConfig) (Completer, error) {
		return NewOpenAICompleter(pc), nil
	})
	_ = r.Register(domain.ProviderKindAnthropic, func(_ context.Context, pc config.ProviderConfig) (Completer, error) {
		return NewAnthropicCompleter(pc), nil
	})
	_ = r.Register(domain.ProviderKindGemini, func(ctx context.Context, pc config.ProviderConfig) (Completer, error) {
		return NewGeminiCompleter(ctx, pc)
	})
	return r
}

func (r *registry) Register(kind domain.ProviderKind, factory CompleterFactory) error {
	if kind == "" {
		return fmt.Errorf("provider kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("provider kind %q is already registered", kind)
	}

	r.factories[kind] = factory
	return nil
}

func (r *registry) Create(ctx context.Context, pc config.ProviderConfig) (Provider, error) {
	r.mu.RLock()
	factory, exists := r.factories[pc.Kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, pc.Kind)
	}
	if pc.APIKey == "" {
		return nil, fmt.Errorf("provider %s: api key is not configured", pc.Name)
	}

	completer, err := factory(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
	}
	return NewLLMProvider(pc.Name, completer, r.opts), nil
}

func (r *registry) Kinds() []domain.ProviderKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.ProviderKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewProvider creates a provider for pc using the default vendors.
func NewProvider(ctx context.Context, pc config.ProviderConfig) (Provider, error) {
	return DefaultRegistry().Create(ctx, pc)
}
