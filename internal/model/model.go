// Package model defines the records exchanged between the scraper components.
package model

import (
	"encoding/json"
	"maps"
	"sync"
)

// Country is an opaque country code as issued by the leaders API.
// It is used as the partition key of a ScrapeResult and is never validated.
type Country string

// Leader is a single historical leader of a country.
//
// FirstParagraph is always serialized (as null when no biography was found),
// so every enriched record carries the first_paragraph key. Fields the API
// sends beyond the named ones are kept in Extra and written back out.
type Leader struct {
	ID             string  `json:"id" yaml:"id"`
	FirstName      string  `json:"first_name" yaml:"first_name"`
	LastName       string  `json:"last_name" yaml:"last_name"`
	BirthDate      string  `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	DeathDate      string  `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	PlaceOfBirth   string  `json:"place_of_birth,omitempty" yaml:"place_of_birth,omitempty"`
	WikipediaURL   string  `json:"wikipedia_url,omitempty" yaml:"wikipedia_url,omitempty"`
	StartMandate   string  `json:"start_mandate,omitempty" yaml:"start_mandate,omitempty"`
	EndMandate     string  `json:"end_mandate,omitempty" yaml:"end_mandate,omitempty"`
	FirstParagraph *string `json:"first_paragraph" yaml:"first_paragraph"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`

	// numericID records that the API sent id as a number.
	numericID bool
}

// FullName joins first and last name.
func (l Leader) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

// HasParagraph reports whether a biography paragraph was attached.
func (l Leader) HasParagraph() bool {
	return l.FirstParagraph != nil
}

// cloneLeaders copies leaders, including their Extra maps.
func cloneLeaders(leaders []Leader) []Leader {
	cp := make([]Leader, len(leaders))
	for i, l := range leaders {
		l.Extra = maps.Clone(l.Extra)
		cp[i] = l
	}
	return cp
}

// ScrapeResult maps countries to their enriched leaders.
//
// A country's leaders are committed as a whole; readers never observe a
// partially enriched country. It is safe for concurrent use.
type ScrapeResult struct {
	mu      sync.RWMutex
	order   []Country
	leaders map[Country][]Leader
}

// NewScrapeResult creates an empty result.
func NewScrapeResult() *ScrapeResult {
	return &ScrapeResult{
		leaders: make(map[Country][]Leader),
	}
}

// Commit stores the leaders of a country, replacing any earlier entry.
// The leaders are copied so later mutation by the caller is not visible.
func (r *ScrapeResult) Commit(country Country, leaders []Leader) {
	cp := cloneLeaders(leaders)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.leaders[country]; !exists {
		r.order = append(r.order, country)
	}
	r.leaders[country] = cp
}

// Leaders returns a copy of the committed leaders of a country.
func (r *ScrapeResult) Leaders(country Country) ([]Leader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	leaders, ok := r.leaders[country]
	if !ok {
		return nil, false
	}
	return cloneLeaders(leaders), true
}

// Has reports whether a country was committed.
func (r *ScrapeResult) Has(country Country) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.leaders[country]
	return ok
}

// Countries returns committed countries in commit order.
func (r *ScrapeResult) Countries() []Country {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]Country, len(r.order))
	copy(cp, r.order)
	return cp
}

// Len returns the number of committed countries.
func (r *ScrapeResult) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot returns a copy of the whole mapping.
func (r *ScrapeResult) Snapshot() map[Country][]Leader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Country][]Leader, len(r.leaders))
	for c, leaders := range r.leaders {
		out[c] = cloneLeaders(leaders)
	}
	return out
}

// Each calls fn for every committed country in commit order.
func (r *ScrapeResult) Each(fn func(country Country, leaders []Leader)) {
	for _, c := range r.Countries() {
		leaders, _ := r.Leaders(c)
		fn(c, leaders)
	}
}

// Stats counts leaders and leaders with a biography paragraph.
func (r *ScrapeResult) Stats() (leaders, withParagraph int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ls := range r.leaders {
		for _, l := range ls {
			leaders++
			if l.HasParagraph() {
				withParagraph++
			}
		}
	}
	return leaders, withParagraph
}
