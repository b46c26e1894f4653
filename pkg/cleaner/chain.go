package cleaner

import (
	"strings"
)

// Chain applies multiple rules in sequence.
// Later rules may rely on earlier ones having run.
type Chain struct {
	rules []Rule
}

// NewChain creates a rule that applies the given rules in order.
//
// Example:
//
//	chain := cleaner.NewChain(
//	    cleaner.References(),
//	    cleaner.Normalize(),
//	)
func NewChain(rules ...Rule) *Chain {
	cp := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			cp = append(cp, r)
		}
	}
	return &Chain{rules: cp}
}

// Clean applies all rules in sequence.
func (c *Chain) Clean(text string) string {
	for _, rule := range c.rules {
		text = rule.Clean(text)
	}
	return text
}

// Name returns the names of all chained rules.
func (c *Chain) Name() string {
	return "chain(" + strings.Join(c.Names(), "->") + ")"
}

// Names lists rule names in application order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.rules))
	for i, rule := range c.rules {
		names[i] = rule.Name()
	}
	return names
}

// Without returns a new chain without the named rules.
func (c *Chain) Without(names ...string) *Chain {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]Rule, 0, len(c.rules))
	for _, rule := range c.rules {
		if !drop[rule.Name()] {
			kept = append(kept, rule)
		}
	}
	return NewChain(kept...)
}

// With returns a new chain with rule inserted before the named rule.
// If before is empty or not found, the rule is appended.
func (c *Chain) With(rule Rule, before string) *Chain {
	out := make([]Rule, 0, len(c.rules)+1)
	inserted := false
	for _, r := range c.rules {
		if !inserted && before != "" && r.Name() == before {
			out = append(out, rule)
			inserted = true
		}
		out = append(out, r)
	}
	if !inserted {
		out = append(out, rule)
	}
	return NewChain(out...)
}
