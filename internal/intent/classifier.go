// Package intent maps final transcripts onto the fixed set of voice intents.
package intent

import (
	"strings"

	"voicewell/internal/domain"
)

// Rule pairs an intent with a predicate over normalized text.
type Rule struct {
	Intent domain.Intent
	Match  func(normalized string) bool
}

// Classifier evaluates rules in order; the first match wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier over the built-in rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules()}
}

// NewClassifierWithRules evaluates rules exactly in the given order.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Normalize lower-cases and trims a transcript.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify returns the intent of the first matching rule, or
// IntentUnrecognized.
func (c *Classifier) Classify(text string) domain.Intent {
	normalized := Normalize(text)
	if normalized == "" {
		return domain.IntentUnrecognized
	}
	for _, rule := range c.rules {
		if rule.Match(normalized) {
			return rule.Intent
		}
	}
	return domain.IntentUnrecognized
}

// Order lists the intents of the rule table in evaluation order.
func (c *Classifier) Order() []domain.Intent {
	out := make([]domain.Intent, 0, len(c.rules))
	for _, rule := range c.rules {
		out = append(out, rule.Intent)
	}
	return out
}
