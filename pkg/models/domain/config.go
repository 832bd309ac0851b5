package domain

import "fmt"

// ProviderKind names the vendor API a semantic analyzer provider talks to.
type ProviderKind string

const (
	ProviderKindOpenAI    ProviderKind = "openai"
	ProviderKindAnthropic ProviderKind = "anthropic"
	ProviderKindGemini    ProviderKind = "gemini"
)

// ProviderKinds lists the supported vendors in their default registration order.
var ProviderKinds = []ProviderKind{ProviderKindOpenAI, ProviderKindAnthropic, ProviderKindGemini}

// ProviderProfile identifies one configured provider.
type ProviderProfile struct {
	Name    string
	Kind    ProviderKind
	Model   string
	Enabled bool
}

func (p ProviderProfile) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.Name)
}
