package cleaner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Character classes shared by the phonetic rules.
const (
	// phoneticChar is the Latin-plus-IPA alphabet of spelled-out transcriptions,
	// including stress/length marks and combining diacritics.
	phoneticChar = `[\p{Latin}θβχˈˌːˑʼ\x{0300}-\x{036F}]`

	// phoneticToken is a short (1 to 3 character) transcription fragment.
	phoneticToken = phoneticChar + `{1,3}`

	// phoneticSep separates fragments: whitespace, or a period or middle dot.
	phoneticSep = `(?:\s*[.·]\s*|\s+)`

	// phoneticRun is three or more consecutive fragments.
	phoneticRun = phoneticToken + `(?:` + phoneticSep + phoneticToken + `){2,}`
)

var (
	bracketReference = regexp.MustCompile(`\[[^\]]*\]`)
	editorialTag     = regexp.MustCompile(`(?i)\(\s*(?:citation needed|clarification needed|who\?|when\?|which\?|according to whom\?|dubious|failed verification)\s*\)`)

	cueWord = regexp.MustCompile(`(?i)` + strings.Join([]string{
		"listen", "pronounced", "pronunciation",
		"écouter", "prononciation", "prononcée", "prononcé",
		"uitspraak", "beluister", "luister",
	}, "|"))
	audioGlyph = regexp.MustCompile(`[\x{24D8}\x{27A4}\x{25B6}\x{25BA}\x{1F50A}\x{1F508}\x{1F509}\x{266A}\x{266B}\x{FE0F}]`)

	slashPhonetic = regexp.MustCompile(`(^|[\s(\[,;:])/[^/\s\d][^/\d\n]{0,80}[^/\s\d]/([\s),;:.]|$)`)

	parenPhonetic = regexp.MustCompile(`\(\s*` + phoneticRun + `\s*[.·]?\s*\)`)
	danglingTail  = regexp.MustCompile(`(?:^|\s)(` + phoneticRun + `)\s*[.·]?\s*$`)
	ipaParen      = regexp.MustCompile(`\(\s*[\p{Latin}θβχˈˌːˑʼ\x{0300}-\x{036F}.·\s-]+\)`)

	// ipaMarker distinguishes a transcription from short Latin prose such as "(in the UK)".
	ipaMarker = regexp.MustCompile(`[\x{0250}-\x{02AF}ˈˌːˑ·]`)

	emptyParen = regexp.MustCompile(`\(\s*\)`)

	spaceReplacer = strings.NewReplacer(
		"\u00a0", " ",
		"\u202f", " ",
		"\u2007", " ",
		"\u2009", " ",
		"\u200b", "",
		"\ufeff", "",
	)
	whitespaceRun      = regexp.MustCompile(`[\s\p{Zs}]+`)
	spaceBeforePunct   = regexp.MustCompile(`([^\s,;:.!?(\[])\s+([,;:])`)
	spaceAfterTerminal = regexp.MustCompile(`([.!?])\s+`)

	parenGroup = regexp.MustCompile(`\(([^()]*)\)`)

	// respellingWord is a hyphen-joined syllable group such as "BYOO-rən".
	respellingWord = regexp.MustCompile(`^\p{L}+(?:[-\x{2010}]\p{L}+)+$`)
	respellingLead = regexp.MustCompile(`^\p{Ll}{1,4}$`)
	stressSyllable = regexp.MustCompile(`^\p{Lu}{2,}$`)

	hatnote = regexp.MustCompile(`(?i)(^|[.!?]\s)[^.!?]*?\b(?:redirects? here|for other uses|redirige(?:nt)? ici|pour les articles homonymes|pour l['’]article homonyme|cet article concerne|niet te verwarren met)\b[^.!?]*[.!?]?`)
)

// References strips bracketed citation markers such as "[1]" or "[citation needed]"
// and parenthesized editorial tags such as "(who?)".
func References() Rule {
	return NewRuleFunc(RuleReferences, func(text string) string {
		text = bracketReference.ReplaceAllString(text, "")
		return editorialTag.ReplaceAllString(text, "")
	})
}

// Pronunciation strips audio cue words (English, French, Dutch) and play/audio glyphs.
// A cue word is only removed where audio links sit: right after an opening
// parenthesis, before a closing parenthesis or colon, or next to an audio
// glyph. "He refused to listen" is prose and stays.
func Pronunciation() Rule {
	return NewRuleFunc(RulePronunciation, func(text string) string {
		text = untilStable(text, stripCueWords)
		return audioGlyph.ReplaceAllString(text, "")
	})
}

func stripCueWords(text string) string {
	locs := cueWord.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if !wholeWord(text, start, end) || !cueContext(text, start, end) {
			continue
		}
		b.WriteString(text[last:start])
		last = end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// wholeWord reports whether text[start:end] is not part of a longer word.
func wholeWord(text string, start, end int) bool {
	if r, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && isWordRune(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && isWordRune(r) {
		return false
	}
	return true
}

func cueContext(text string, start, end int) bool {
	before := strings.TrimRightFunc(text[:start], unicode.IsSpace)
	after := strings.TrimLeftFunc(text[end:], unicode.IsSpace)

	if r, _ := utf8.DecodeLastRuneInString(before); before != "" && (r == '(' || isAudioGlyph(r)) {
		return true
	}
	if r, _ := utf8.DecodeRuneInString(after); after != "" && (r == ')' || r == ':' || isAudioGlyph(r)) {
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isAudioGlyph(r rune) bool {
	return audioGlyph.MatchString(string(r))
}

// SlashPhonetics strips slash-delimited transcriptions like "/ˈʃɪræk/".
// The opening slash must start a word, so "and/or" and "km/h" survive.
func SlashPhonetics() Rule {
	return NewRuleFunc(RuleSlashPhonetics, func(text string) string {
		return untilStable(text, func(s string) string {
			return slashPhonetic.ReplaceAllString(s, "${1}${2}")
		})
	})
}

// ParenPhonetics strips parentheticals made only of three or more short
// transcription fragments, e.g. "(n i. k. l a s a ʁ. k. z i)".
func ParenPhonetics() Rule {
	return NewRuleFunc(RuleParenPhonetics, func(text string) string {
		return parenPhonetic.ReplaceAllStringFunc(text, func(m string) string {
			if !ipaMarker.MatchString(m) {
				return m
			}
			return ""
		})
	})
}

// DanglingPhonetics strips a fragment run that ends in a closing parenthesis
// whose opener is not part of the text.
func DanglingPhonetics() Rule {
	return NewRuleFunc(RuleDanglingPhonetics, func(text string) string {
		return untilStable(text, stripDangling)
	})
}

func stripDangling(text string) string {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				continue
			}
			prefix := text[:i]
			loc := danglingTail.FindStringSubmatchIndex(prefix)
			if loc == nil || !ipaMarker.MatchString(prefix[loc[2]:loc[3]]) {
				continue
			}
			return text[:loc[2]] + text[i+1:]
		}
	}
	return text
}

// EmptyParens removes parentheses left empty by earlier rules.
func EmptyParens() Rule {
	return NewRuleFunc(RuleEmptyParens, func(text string) string {
		return untilStable(text, func(s string) string {
			return emptyParen.ReplaceAllString(s, "")
		})
	})
}

// Normalize fixes spacing: non-breaking spaces become spaces, runs of
// whitespace and Unicode space separators collapse, spaces before , ; : are dropped and the result is trimmed.
// A space is only dropped after a word, so "French: ;" keeps its shape.
func Normalize() Rule {
	return NewRuleFunc(RuleNormalize, func(text string) string {
		text = spaceReplacer.Replace(text)
		text = whitespaceRun.ReplaceAllString(text, " ")
		text = untilStable(text, func(s string) string {
			return spaceBeforePunct.ReplaceAllString(s, "${1}${2}")
		})
		text = spaceAfterTerminal.ReplaceAllString(text, "${1} ")
		return strings.TrimSpace(text)
	})
}

// Hatnotes strips disambiguation and redirect sentences
// ("X redirects here.", "Pour les articles homonymes, voir ...").
func Hatnotes() Rule {
	return NewRuleFunc(RuleHatnotes, func(text string) string {
		return untilStable(text, func(s string) string {
			return hatnote.ReplaceAllString(s, "${1}")
		})
	})
}

// IPAParens strips any parenthetical written entirely in the phonetic alphabet
// that contains at least one IPA-only symbol, regardless of fragment length.
func IPAParens() Rule {
	return NewRuleFunc("ipa-parens", func(text string) string {
		return ipaParen.ReplaceAllStringFunc(text, func(m string) string {
			if !ipaMarker.MatchString(m) {
				return m
			}
			return ""
		})
	})
}

// Respelling strips English pronunciation respellings such as "van BYOO-rən"
// or "mən-ROH" from parentheticals. A ";"-separated part of a parenthetical is
// dropped only when it is made of at most four words, all hyphenated syllable
// groups or short lowercase lead-ins, and one group pairs a stressed all-caps
// syllable with a lowercase one containing a schwa or with two hyphens.
// "(NATO-led)" and "(self-made)" survive.
func Respelling() Rule {
	return NewRuleFunc(RuleRespelling, func(text string) string {
		return parenGroup.ReplaceAllStringFunc(text, func(m string) string {
			parts := strings.Split(m[1:len(m)-1], ";")
			kept := parts[:0]
			for _, part := range parts {
				if !isRespelling(part) {
					kept = append(kept, part)
				}
			}
			if len(kept) == len(parts) {
				return m
			}
			return "(" + strings.TrimSpace(strings.Join(kept, ";")) + ")"
		})
	})
}

func isRespelling(part string) bool {
	words := strings.Fields(part)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	stressed := false
	for _, w := range words {
		switch {
		case respellingWord.MatchString(w):
			if respellingGroup(w) {
				stressed = true
			}
		case respellingLead.MatchString(w):
		default:
			return false
		}
	}
	return stressed
}

// respellingGroup reports whether a hyphenated word reads as a respelling.
func respellingGroup(w string) bool {
	syllables := strings.FieldsFunc(w, func(r rune) bool { return r == '-' || r == '\u2010' })
	var upper, lower bool
	for _, s := range syllables {
		switch {
		case stressSyllable.MatchString(s):
			upper = true
		case strings.ToLower(s) == s:
			lower = true
		}
	}
	return upper && lower && (strings.ContainsRune(w, 'ə') || len(syllables) > 2)
}
