// Package resolve maps free-text entity references from the conversation onto
// concrete account and biller records. It is pure string matching with no I/O,
// so callers decide where candidate lists come from. Accounts and billers are
// matched differently on purpose: accounts score numerically and always yield
// a single best record, billers collect all hits and report ambiguity.
package resolve

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when the reference is empty, or reduces to nothing
// after stop-word stripping ("my account"). Callers should re-prompt rather
// than report "not found".
var ErrEmptyQuery = errors.New("resolve: empty query")

// ErrNotFound is returned when no candidate clears the match threshold.
var ErrNotFound = errors.New("resolve: no match")

// AccountCandidate is the subset of an account record the matcher needs.
type AccountCandidate struct {
	ID       string
	Type     string
	Nickname string
}

// accountStopWords are filler tokens users wrap around an account reference
// ("my savings account"). They carry no signal and are stripped before
// type/id matching. Exact nickname matching uses the unstripped text, since
// nicknames may legitimately contain these words.
var accountStopWords = map[string]struct{}{
	"my":      {},
	"account": {},
	"acc":     {},
}

// accountTypeSynonyms maps colloquial account-type phrases to the canonical
// type names stored on account records.
var accountTypeSynonyms = map[string]string{
	"checking":         "current",
	"checking account": "current",
	"current account":  "current",
	"savings":          "savings",
	"savings account":  "savings",
}

// Score weights for the fallback matcher. A candidate is accepted only when
// its total strictly exceeds scoreThreshold, so a lone substring-id hit (2)
// never wins on its own.
const (
	scoreTypeExact     = 10
	scoreTypeSubstring = 5
	scoreSynonym       = 8
	scoreIDExact       = 10
	scoreIDSubstring   = 2
	scoreAccountBonus  = 3
	scoreThreshold     = 3
)

// ResolveAccount picks the account a free-text reference most plausibly means.
//
// Resolution order: exact nickname match on the raw lowercased text, then
// synonym lookup ("checking" means type "current"), then a scored comparison
// of the stripped text against each candidate's type and id. The best score
// wins if it clears the threshold; ties keep the earlier candidate, so
// candidate order is significant.
func ResolveAccount(reference string, candidates []AccountCandidate) (AccountCandidate, error) {
	raw := strings.ToLower(strings.TrimSpace(reference))
	if raw == "" {
		return AccountCandidate{}, ErrEmptyQuery
	}
	if len(candidates) == 0 {
		return AccountCandidate{}, ErrNotFound
	}

	for _, c := range candidates {
		if c.Nickname != "" && strings.ToLower(c.Nickname) == raw {
			return c, nil
		}
	}

	query := stripStopWords(raw)
	if query == "" {
		return AccountCandidate{}, ErrEmptyQuery
	}

	if canonical, ok := accountTypeSynonyms[query]; ok {
		for _, c := range candidates {
			if strings.EqualFold(c.Type, canonical) {
				return c, nil
			}
		}
	}

	best := -1
	bestScore := 0
	for i, c := range candidates {
		if s := scoreAccount(query, raw, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore <= scoreThreshold {
		return AccountCandidate{}, ErrNotFound
	}
	return candidates[best], nil
}

func scoreAccount(query, raw string, c AccountCandidate) int {
	accType := strings.ToLower(c.Type)
	id := strings.ToLower(c.ID)

	score := 0
	switch {
	case accType != "" && query == accType:
		score += scoreTypeExact
	case accType != "" && (strings.Contains(query, accType) || strings.Contains(accType, query)):
		score += scoreTypeSubstring
		// "savings account" style phrasing is a strong hint the type
		// reference was intentional.
		if strings.Contains(raw, "account") {
			score += scoreAccountBonus
		}
	}
	for key, canonical := range accountTypeSynonyms {
		if canonical == accType && strings.Contains(query, key) {
			score += scoreSynonym
			break
		}
	}
	switch {
	case id != "" && query == id:
		score += scoreIDExact
	case id != "" && strings.Contains(query, id):
		score += scoreIDSubstring
	}
	return score
}

func stripStopWords(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if _, stop := accountStopWords[f]; !stop {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
