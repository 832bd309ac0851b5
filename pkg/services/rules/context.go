package rules

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Ellipsis marks a context window clipped at either end.
const Ellipsis = "..."

// Window returns the text around text[start:end] extended by up to chars
// characters on both sides. The excerpt is trimmed of surrounding whitespace
// and marked with Ellipsis on each side where the document continues.
func Window(text string, start, end, chars int) string {
	if chars < 0 {
		chars = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}

	from := start
	for i := 0; i < chars && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < chars && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}

	excerpt := strings.TrimSpace(text[from:to])
	if from > 0 {
		excerpt = Ellipsis + excerpt
	}
	if to < len(text) {
		excerpt += Ellipsis
	}
	return excerpt
}

// clip bounds the scanned text to maxBytes without splitting a rune.
func clip(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

type termPattern struct {
	term string
	re   *regexp.Regexp
}

// wordPatterns compiles a case-insensitive whole-word matcher per term.
// Blank terms are skipped.
func wordPatterns(terms []string) []termPattern {
	out := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		out = append(out, termPattern{
			term: term,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}
	return out
}

// submatchInt parses capture group n of a FindAllStringSubmatchIndex entry.
// Digit runs too long for an int saturate at math.MaxInt.
func submatchInt(text string, loc []int, n int) (int, bool) {
	if len(loc) < 2*n+2 || loc[2*n] < 0 {
		return 0, false
	}
	v, err := strconv.Atoi(text[loc[2*n]:loc[2*n+1]])
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
