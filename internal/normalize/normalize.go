// Package normalize rewrites recognizer output before intent classification,
// correcting common mis-hearings ("vital science" => "vital signs").
//
// Rule lines take one of two forms:
//
//	heard phrase => replacement
//	s/pattern/replacement/flags
//
// Blank lines and lines starting with # are ignored.
package normalize

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultMaxPasses = 30

// Substitution is one compiled rewrite rule.
type Substitution interface {
	Rewrite(in string) (out string, changed bool)
}

// Syntax recognizes and compiles one rule line format.
type Syntax interface {
	Accepts(line string) bool
	Compile(line string) (Substitution, error)
}

// Normalizer applies substitutions repeatedly until the text stops changing
// or maxPasses is reached.
type Normalizer struct {
	subs      []Substitution
	maxPasses int
}

// Load compiles the rules file at path followed by the inline rules. A
// missing or empty path contributes no rules.
func Load(path string, inline []string, maxPasses int) (*Normalizer, error) {
	return LoadWithSyntaxes(path, inline, maxPasses, DefaultSyntaxes())
}

func LoadWithSyntaxes(path string, inline []string, maxPasses int, syntaxes []Syntax) (*Normalizer, error) {
	if maxPasses <= 0 {
		maxPasses = defaultMaxPasses
	}
	if len(syntaxes) == 0 {
		syntaxes = DefaultSyntaxes()
	}

	var lines []string
	if path = strings.TrimSpace(path); path != "" {
		contents, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read normalize rules %q: %w", path, err)
		default:
			lines = strings.Split(string(contents), "\n")
		}
	}

	subs, err := Compile(lines, syntaxes)
	if err != nil {
		return nil, fmt.Errorf("normalize rules %q: %w", path, err)
	}
	extra, err := Compile(inline, syntaxes)
	if err != nil {
		return nil, fmt.Errorf("inline normalize rules: %w", err)
	}

	return &Normalizer{subs: append(subs, extra...), maxPasses: maxPasses}, nil
}

// Compile turns rule lines into substitutions, reporting the 1-based line
// number of the first bad rule.
func Compile(lines []string, syntaxes []Syntax) ([]Substitution, error) {
	subs := make([]Substitution, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sub, err := compileLine(line, syntaxes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func compileLine(line string, syntaxes []Syntax) (Substitution, error) {
	for _, syntax := range syntaxes {
		if syntax.Accepts(line) {
			return syntax.Compile(line)
		}
	}
	return nil, errors.New("unsupported rule format")
}

// Len reports how many substitutions are loaded.
func (n *Normalizer) Len() int {
	return len(n.subs)
}

// Apply rewrites text to a fixed point.
func (n *Normalizer) Apply(text string) (string, error) {
	out := text
	for pass := 0; pass < n.maxPasses; pass++ {
		dirty := false
		for _, sub := range n.subs {
			if next, changed := sub.Rewrite(out); changed {
				out, dirty = next, true
			}
		}
		if !dirty {
			break
		}
	}
	return out, nil
}

// DefaultSyntaxes checks sed-style rules before phrase rules so that a
// replacement containing "=>" is not misread.
func DefaultSyntaxes() []Syntax {
	return []Syntax{sedSyntax{}, phraseSyntax{}}
}

type phraseSyntax struct{}

func (phraseSyntax) Accepts(line string) bool {
	return strings.Contains(line, "=>")
}

func (phraseSyntax) Compile(line string) (Substitution, error) {
	heard, replacement, _ := strings.Cut(line, "=>")
	heard = strings.TrimSpace(heard)
	if heard == "" {
		return nil, errors.New("phrase rule needs a source phrase")
	}

	pattern := regexp.QuoteMeta(heard)
	if isWordByte(heard[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(heard[len(heard)-1]) {
		pattern += `\b`
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("bad phrase: %w", err)
	}
	return regexpSub{re: re, repl: strings.TrimSpace(replacement), all: true}, nil
}

type sedSyntax struct{}

func (sedSyntax) Accepts(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordByte(line[1]) && line[1] != ' ' && line[1] != '\t'
}

func (sedSyntax) Compile(line string) (Substitution, error) {
	delim := line[1]
	pattern, rest, err := splitDelimited(line[2:], delim)
	if err != nil {
		return nil, fmt.Errorf("bad pattern: %w", err)
	}
	repl, rest, err := splitDelimited(rest, delim)
	if err != nil {
		return nil, fmt.Errorf("bad replacement: %w", err)
	}

	// Case-insensitive unless the flags say otherwise; spoken text has no
	// reliable casing.
	inline := "i"
	all := false
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'g':
			all = true
		case 'i':
		case 'm', 's':
			inline += string(flag)
		case ' ':
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + inline + ")" + pattern)
	if err != nil {
		return nil, fmt.Errorf("bad regex: %w", err)
	}
	return regexpSub{re: re, repl: repl, all: all}, nil
}

type regexpSub struct {
	re   *regexp.Regexp
	repl string
	all  bool
}

func (r regexpSub) Rewrite(in string) (string, bool) {
	if r.all {
		out := r.re.ReplaceAllString(in, r.repl)
		return out, out != in
	}
	loc := r.re.FindStringSubmatchIndex(in)
	if loc == nil {
		return in, false
	}
	expanded := r.re.ExpandString(nil, r.repl, in, loc)
	out := in[:loc[0]] + string(expanded) + in[loc[1]:]
	return out, out != in
}

// splitDelimited reads up to the next unescaped delim and returns the text
// before it and the remainder after it.
func splitDelimited(s string, delim byte) (string, string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			if next != delim {
				b.WriteByte(c)
			}
			b.WriteByte(next)
			i++
			continue
		}
		if c == delim {
			return b.String(), s[i+1:], nil
		}
		b.WriteByte(c)
	}
	return "", "", errors.New("unterminated expression")
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
