package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/de-tools/redflag/pkg/models/domain"
	"gopkg.in/ini.v1"
)

var ErrProviderNotFound = errors.New("provider not found")

// Default request parameters for a provider section that does not set them.
const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.0
)

var defaultModels = map[domain.ProviderKind]string{
	domain.ProviderKindOpenAI:    "gpt-4o-mini",
	domain.ProviderKindAnthropic: "claude-3-5-sonnet-20240620",
	domain.ProviderKindGemini:    "gemini-pro",
}

// apiKeyEnv maps each vendor onto the environment variable consulted when a
// section carries no api_key.
var apiKeyEnv = map[domain.ProviderKind]string{
	domain.ProviderKindOpenAI:    "OPENAI_API_KEY",
	domain.ProviderKindAnthropic: "ANTHROPIC_API_KEY",
	domain.ProviderKindGemini:    "GEMINI_API_KEY",
}

// ProviderConfig holds everything needed to construct one semantic provider.
type ProviderConfig struct {
	Name        string
	Kind        domain.ProviderKind
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Enabled     bool
}

// Registry exposes the configured semantic analyzer providers.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.ProviderProfile, error)
	GetConfig(ctx context.Context, profile string) (ProviderConfig, error)
}

type iniRegistry struct {
	cfg *ini.File
}

// NewProviderRegistry loads provider sections from an ini file:
//
//	[openai]
//	api_key = sk-...
//	model   = gpt-4o-mini
//
//	[claude]
//	kind    = anthropic
//	enabled = false
//
// A section's kind defaults to its name. When path is empty or does not exist,
// one section is synthesized per vendor whose API key environment variable is set.
func NewProviderRegistry(path string) (Registry, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cfg, err := ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load provider config: %w", err)
			}
			return &iniRegistry{cfg: cfg}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat provider config: %w", err)
		}
	}

	cfg := ini.Empty()
	for _, kind := range domain.ProviderKinds {
		if os.Getenv(apiKeyEnv[kind]) == "" {
			continue
		}
		if _, err := cfg.NewSection(string(kind)); err != nil {
			return nil, fmt.Errorf("failed to add provider %s: %w", kind, err)
		}
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetProfiles(ctx context.Context) ([]domain.ProviderProfile, error) {
	var profiles []domain.ProviderProfile
	for _, section := range r.cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		pc, err := r.GetConfig(ctx, section.Name())
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, domain.ProviderProfile{
			Name:    pc.Name,
			Kind:    pc.Kind,
			Model:   pc.Model,
			Enabled: pc.Enabled,
		})
	}
	return profiles, nil
}

func (r *iniRegistry) GetConfig(_ context.Context, profile string) (ProviderConfig, error) {
	section, err := r.cfg.GetSection(profile)
	if err != nil || profile == ini.DefaultSection {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrProviderNotFound, profile)
	}

	kind := domain.ProviderKind(strings.ToLower(section.Key("kind").MustString(profile)))
	pc := ProviderConfig{
		Name:        profile,
		Kind:        kind,
		APIKey:      section.Key("api_key").String(),
		Model:       section.Key("model").MustString(defaultModels[kind]),
		BaseURL:     section.Key("base_url").String(),
		MaxTokens:   section.Key("max_tokens").MustInt(DefaultMaxTokens),
		Temperature: float32(section.Key("temperature").MustFloat64(DefaultTemperature)),
		Enabled:     section.Key("enabled").MustBool(true),
	}
	if pc.APIKey == "" {
		pc.APIKey = os.Getenv(apiKeyEnv[kind])
	}
	return pc, nil
}

// EnabledConfigs returns the enabled providers in file order.
func EnabledConfigs(ctx context.Context, r Registry) ([]ProviderConfig, error) {
	profiles, err := r.GetProfiles(ctx)
	if err != nil {
		return nil, err
	}
	var out []ProviderConfig
	for _, p := range profiles {
		if !p.Enabled {
			continue
		}
		pc, err := r.GetConfig(ctx, p.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}
