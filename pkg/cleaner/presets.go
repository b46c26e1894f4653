package cleaner

import (
	"fmt"
	"sort"
	"strings"
)

// Preset names accepted by Preset.
const (
	PresetDefault  = "default"
	PresetExtended = "extended"
	PresetNone     = "none"
)

// maxPasses bounds Sanitizer's fixed-point loop.
const maxPasses = 8

// Default returns the standard rule chain:
// references, pronunciation, slash-phonetics, paren-phonetics,
// dangling-phonetics, empty-parens, normalize.
func Default() *Chain {
	return NewChain(
		References(),
		Pronunciation(),
		SlashPhonetics(),
		ParenPhonetics(),
		DanglingPhonetics(),
		EmptyParens(),
		Normalize(),
	)
}

// Extended returns Default plus hatnote removal, full-IPA parenthetical removal
// and English respelling removal.
func Extended() *Chain {
	return Default().
		With(Hatnotes(), RulePronunciation).
		With(IPAParens(), RuleParenPhonetics).
		With(Respelling(), RuleEmptyParens)
}

var presets = map[string]func() Rule{
	PresetDefault:  func() Rule { return Default() },
	PresetExtended: func() Rule { return Extended() },
	PresetNone:     func() Rule { return NewNoop() },
}

// Preset returns the rule set registered under name.
func Preset(name string) (Rule, error) {
	build, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown cleaner preset %q (available: %s)", name, strings.Join(Presets(), ", "))
	}
	return build(), nil
}

// Presets lists the available preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sanitizer applies a rule repeatedly until the text stops changing, so that
// sanitizing already-sanitized text is a no-op.
type Sanitizer struct {
	rule Rule
}

// NewSanitizer wraps rule. A nil rule selects Default.
func NewSanitizer(rule Rule) *Sanitizer {
	if rule == nil {
		rule = Default()
	}
	return &Sanitizer{rule: rule}
}

// Clean sanitizes text.
func (s *Sanitizer) Clean(text string) string {
	for range maxPasses {
		next := s.rule.Clean(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

// Name returns the wrapped rule name.
func (s *Sanitizer) Name() string {
	return s.rule.Name()
}

var defaultSanitizer = NewSanitizer(Default())

// Sanitize cleans text with the default rule chain.
func Sanitize(text string) string {
	return defaultSanitizer.Clean(text)
}
