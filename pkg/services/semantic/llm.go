package semantic

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/redflag/pkg/models/domain"
	"github.com/rs/zerolog"
)

// DefaultChunkChars bounds the document text sent in a single prompt.
const DefaultChunkChars = 50000

const paragraphSeparator = "\n\n"

//go:embed prompt.tmpl
var promptTemplate string

var promptTmpl = template.Must(template.New("prompt").Parse(promptTemplate))

var categoryList = strings.Join([]string{
	string(domain.CategoryJurisdiction),
	string(domain.CategoryFinancial),
	string(domain.CategoryLegal),
	string(domain.CategoryOperational),
	string(domain.CategoryCompliance),
	string(domain.CategoryVagueLanguage),
	string(domain.CategoryMissingInfo),
	string(domain.CategoryLiability),
	string(domain.CategoryIntellectualProperty),
	string(domain.CategoryTax),
	string(domain.CategoryEmployee),
	string(domain.CategoryCustomer),
	string(domain.CategoryOther),
}, ", ")

type LLMOptions struct {
	// ChunkChars is the maximum characters per prompt (default: 50000)
	ChunkChars int
}

// LLMProvider adapts a Completer to the Provider contract: it splits the text
// into chunks, prompts once per chunk and parses every response.
type LLMProvider struct {
	name       string
	completer  Completer
	chunkChars int
}

func NewLLMProvider(name string, completer Completer, opts LLMOptions) *LLMProvider {
	if opts.ChunkChars <= 0 {
		opts.ChunkChars = DefaultChunkChars
	}
	return &LLMProvider{name: name, completer: completer, chunkChars: opts.ChunkChars}
}

func (p *LLMProvider) Name() string { return p.name }

// Analyze fails as a whole when a chunk cannot be completed. A chunk whose
// response cannot be parsed contributes nothing and the remaining chunks still run.
func (p *LLMProvider) Analyze(ctx context.Context, text string) ([]domain.Finding, error) {
	logger := zerolog.Ctx(ctx)

	findings := []domain.Finding{}
	for i, chunk := range Chunk(text, p.chunkChars) {
		prompt, err := RenderPrompt(chunk)
		if err != nil {
			return nil, err
		}
		raw, err := p.completer.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%s: chunk %d: %w", p.name, i, err)
		}
		parsed, err := ParseResponse(raw, p.name)
		if errors.Is(err, ErrMalformedResponse) {
			logger.Warn().Err(err).Str("provider", p.name).Int("chunk", i).Msg("skipping unparseable chunk response")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: chunk %d: %w", p.name, i, err)
		}
		findings = append(findings, parsed...)
	}
	return findings, nil
}

// Close releases the underlying client when it holds one.
func (p *LLMProvider) Close() error {
	if c, ok := p.completer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RenderPrompt builds the analysis prompt for one chunk of text.
func RenderPrompt(chunk string) (string, error) {
	var b strings.Builder
	err := promptTmpl.Execute(&b, struct {
		Categories string
		Text       string
	}{Categories: categoryList, Text: chunk})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}

// Chunk splits text on paragraph boundaries into pieces of at most maxChars
// characters. A single paragraph longer than maxChars becomes its own chunk.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	for _, para := range strings.Split(text, paragraphSeparator) {
		n := utf8.RuneCountInString(para)
		if cur.Len() > 0 && curLen+len(paragraphSeparator)+n > maxChars {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if cur.Len() > 0 {
			cur.WriteString(paragraphSeparator)
			curLen += len(paragraphSeparator)
		}
		cur.WriteString(para)
		curLen += n
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
