// Package cleaner turns raw encyclopedia paragraph text into a clean biography string.
//
// Cleaning is an ordered list of independent rewrite rules. Each rule only deletes
// characters or shrinks a run of characters, so a cleaned string is never longer
// than its input, and no rule can fail.
package cleaner

// Rule rewrites text. Implementations must be deterministic and total.
type Rule interface {
	// Clean returns the rewritten text.
	Clean(text string) string

	// Name returns the rule name for logging/debugging.
	Name() string
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	name string
	fn   func(string) string
}

// NewRuleFunc creates a named rule from a function.
func NewRuleFunc(name string, fn func(string) string) *RuleFunc {
	return &RuleFunc{name: name, fn: fn}
}

// Clean applies the wrapped function.
func (r *RuleFunc) Clean(text string) string {
	return r.fn(text)
}

// Name returns the rule name.
func (r *RuleFunc) Name() string {
	return r.name
}

// Rule names of the built-in rules, in their default order.
const (
	RuleReferences        = "references"
	RulePronunciation     = "pronunciation"
	RuleSlashPhonetics    = "slash-phonetics"
	RuleParenPhonetics    = "paren-phonetics"
	RuleDanglingPhonetics = "dangling-phonetics"
	RuleEmptyParens       = "empty-parens"
	RuleNormalize         = "normalize"
	RuleHatnotes          = "hatnotes"
	RuleRespelling        = "respelling"
)

// untilStable applies fn until the text stops changing.
// Every rule shrinks or keeps its input, so this terminates.
func untilStable(text string, fn func(string) string) string {
	for {
		next := fn(text)
		if next == text {
			return next
		}
		text = next
	}
}
