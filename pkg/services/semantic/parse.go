package semantic

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/de-tools/redflag/pkg/models/domain"
)

var ErrMalformedResponse = errors.New("malformed provider response")

// ParseResponse decodes a model response into findings attributed to source.
// The response may be wrapped in a markdown code fence and may be either a
// JSON array or an object holding the array under "flags" or "findings".
// Items that are not objects or carry a non-numeric score are dropped; unknown
// categories and severities are coerced.
func ParseResponse(raw, source string) ([]domain.Finding, error) {
	body := stripFence(raw)

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if obj, ok := doc.(map[string]any); ok {
		switch {
		case obj["flags"] != nil:
			doc = obj["flags"]
		case obj["findings"] != nil:
			doc = obj["findings"]
		default:
			return []domain.Finding{}, nil
		}
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrMalformedResponse, doc)
	}

	findings := make([]domain.Finding, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		score, ok := parseScore(obj["score"])
		if !ok {
			continue
		}
		location := stringField(obj, "quote")
		if location == "" {
			location = stringField(obj, "location")
		}
		f := domain.Finding{
			Category:       domain.ParseCategory(stringField(obj, "category")),
			Severity:       domain.ParseSeverity(stringField(obj, "severity")),
			Title:          stringField(obj, "title"),
			Description:    stringField(obj, "description"),
			Location:       location,
			Score:          score,
			Source:         source,
			Recommendation: stringField(obj, "recommendation"),
		}
		findings = append(findings, f.Normalize())
	}
	return findings, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// parseScore accepts a JSON number or a numeric string. A missing score
// yields domain.DefaultScore; numbers outside [1,10] are clamped.
func parseScore(v any) (int, bool) {
	switch s := v.(type) {
	case nil:
		return domain.DefaultScore, true
	case float64:
		switch {
		case math.IsNaN(s):
			return 0, false
		case s > domain.MaxScore:
			return domain.MaxScore, true
		case s < domain.MinScore:
			return domain.MinScore, true
		}
		return int(s), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
