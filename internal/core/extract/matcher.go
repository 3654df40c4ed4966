package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind tags the matcher variant.
type Kind string

const (
	KindPattern Kind = "pattern"
	KindLabel   Kind = "label"
	KindLine    Kind = "line"
	KindKeyword Kind = "keyword"
)

// Match is a value found in document text and its byte offset.
type Match struct {
	Value  string
	Offset int
}

// Matcher finds one field value in document text.
type Matcher interface {
	ID() string
	Kind() Kind
	Match(text string) (Match, bool)
}

// PatternMatcher returns the first accepted capture of a regular expression.
// When the expression has several groups the first non-empty one is used.
type PatternMatcher struct {
	id       string
	re       *regexp.Regexp
	reject   map[string]struct{}
	minLen   int
	accept   func(string) bool
	notAfter map[string]struct{}
}

// PatternOption customizes a PatternMatcher.
type PatternOption func(*PatternMatcher)

// Reject drops candidates equal (case-insensitively) to any of words.
func Reject(words ...string) PatternOption {
	return func(m *PatternMatcher) {
		for _, w := range words {
			m.reject[strings.ToUpper(w)] = struct{}{}
		}
	}
}

// MinLength drops candidates shorter than n characters.
func MinLength(n int) PatternOption {
	return func(m *PatternMatcher) { m.minLen = n }
}

// Accept drops candidates for which fn returns false.
func Accept(fn func(string) bool) PatternOption {
	return func(m *PatternMatcher) { m.accept = fn }
}

// NotAfter skips occurrences whose preceding word is one of words.
func NotAfter(words ...string) PatternOption {
	return func(m *PatternMatcher) { m.notAfter = wordSet(words) }
}

// NewPatternMatcher compiles expr, which must contain at least one group.
func NewPatternMatcher(id, expr string, opts ...PatternOption) *PatternMatcher {
	m := &PatternMatcher{
		id:     id,
		re:     regexp.MustCompile(expr),
		reject: map[string]struct{}{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *PatternMatcher) ID() string { return m.id }
func (m *PatternMatcher) Kind() Kind { return KindPattern }

func (m *PatternMatcher) Match(text string) (Match, bool) {
	for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
		if precededBy(text, loc[0], m.notAfter) {
			continue
		}
		for g := 1; 2*g+1 < len(loc); g++ {
			start, end := loc[2*g], loc[2*g+1]
			if start < 0 || start == end {
				continue
			}
			value := strings.TrimSpace(text[start:end])
			if m.acceptable(value) {
				return Match{Value: value, Offset: start}, true
			}
			break
		}
	}
	return Match{}, false
}

func (m *PatternMatcher) acceptable(v string) bool {
	if v == "" {
		return false
	}
	if _, bad := m.reject[strings.ToUpper(v)]; bad {
		return false
	}
	if utf8.RuneCountInString(v) < m.minLen {
		return false
	}
	if m.accept != nil && !m.accept(v) {
		return false
	}
	return true
}

// LabelMatcher finds a label word and then a value starting within Window
// bytes after it.
type LabelMatcher struct {
	id       string
	label    *regexp.Regexp
	value    *regexp.Regexp
	window   int
	notAfter map[string]struct{}
}

// NewLabelMatcher builds a LabelMatcher. With colon set the label must be
// followed by ':'.
func NewLabelMatcher(id string, labels []string, valueExpr string, window int, colon bool, notAfter ...string) *LabelMatcher {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(l), " ", `\s+`)
	}
	expr := `(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`
	if colon {
		expr += `\s*:`
	}
	return &LabelMatcher{
		id:       id,
		label:    regexp.MustCompile(expr),
		value:    regexp.MustCompile(valueExpr),
		window:   window,
		notAfter: wordSet(notAfter),
	}
}

func (m *LabelMatcher) ID() string { return m.id }
func (m *LabelMatcher) Kind() Kind { return KindLabel }

func (m *LabelMatcher) Match(text string) (Match, bool) {
	for _, loc := range m.label.FindAllStringIndex(text, -1) {
		if precededBy(text, loc[0], m.notAfter) {
			continue
		}
		rest := text[loc[1]:]
		v := m.value.FindStringIndex(rest)
		if v == nil || v[0] > m.window {
			continue
		}
		value := strings.TrimSpace(rest[v[0]:v[1]])
		if value == "" {
			continue
		}
		return Match{Value: value, Offset: loc[1] + v[0]}, true
	}
	return Match{}, false
}

// LineMatcher applies a heuristic to the first MaxLines non-empty lines.
type LineMatcher struct {
	id       string
	maxLines int
	pick     func(line string) (string, bool)
}

// NewLineMatcher builds a LineMatcher. A non-positive maxLines scans every line.
func NewLineMatcher(id string, maxLines int, pick func(line string) (string, bool)) *LineMatcher {
	return &LineMatcher{id: id, maxLines: maxLines, pick: pick}
}

func (m *LineMatcher) ID() string { return m.id }
func (m *LineMatcher) Kind() Kind { return KindLine }

func (m *LineMatcher) Match(text string) (Match, bool) {
	seen := 0
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		start := offset
		offset += len(line)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		seen++
		if m.maxLines > 0 && seen > m.maxLines {
			break
		}
		if v, ok := m.pick(trimmed); ok {
			return Match{Value: v, Offset: start + strings.Index(line, trimmed)}, true
		}
	}
	return Match{}, false
}

// Keyword is one token a KeywordMatcher looks for.
type Keyword struct {
	Token string
	Word  bool // require word boundaries around Token
}

// KeywordMatcher returns the first keyword present in the text, in
// declaration order.
type KeywordMatcher struct {
	id       string
	keywords []Keyword
}

// NewKeywordMatcher builds a KeywordMatcher.
func NewKeywordMatcher(id string, keywords ...Keyword) *KeywordMatcher {
	return &KeywordMatcher{id: id, keywords: keywords}
}

func (m *KeywordMatcher) ID() string { return m.id }
func (m *KeywordMatcher) Kind() Kind { return KindKeyword }

func (m *KeywordMatcher) Match(text string) (Match, bool) {
	for _, k := range m.keywords {
		if idx := indexToken(text, k.Token, k.Word); idx >= 0 {
			return Match{Value: k.Token, Offset: idx}, true
		}
	}
	return Match{}, false
}

// indexToken finds token in text, optionally only at word boundaries.
func indexToken(text, token string, word bool) int {
	from := 0
	for from <= len(text) {
		i := strings.Index(text[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		if !word || isBoundary(text, i, i+len(token)) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// precededBy reports whether the word just before pos is in words.
func precededBy(text string, pos int, words map[string]struct{}) bool {
	if len(words) == 0 {
		return false
	}
	start := pos - 48
	if start < 0 {
		start = 0
	}
	fields := strings.Fields(text[start:pos])
	if len(fields) == 0 {
		return false
	}
	last := strings.ToUpper(strings.Trim(fields[len(fields)-1], ".,:;-"))
	_, ok := words[last]
	return ok
}

func wordSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[strings.ToUpper(w)] = struct{}{}
	}
	return out
}
