package cleaner

// NoopRule passes text through without modification.
// Use this to keep raw paragraph text, e.g. when comparing rule sets.
type NoopRule struct{}

// NewNoop creates a new no-op rule.
func NewNoop() *NoopRule {
	return &NoopRule{}
}

// Clean returns the input unchanged.
func (r *NoopRule) Clean(text string) string {
	return text
}

// Name returns the rule type.
func (r *NoopRule) Name() string {
	return "noop"
}
