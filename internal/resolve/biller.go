package resolve

import "strings"

// BillerCandidate is the subset of a biller record the matcher needs.
type BillerCandidate struct {
	ID       string
	Nickname string
	Category string
}

// BillerOption summarizes one candidate in an ambiguous result, enough for
// the conversation to ask the user which one they meant.
type BillerOption struct {
	ID       string `json:"biller_id"`
	Nickname string `json:"biller_nickname"`
}

// BillerOutcome tags a biller resolution result.
type BillerOutcome int

const (
	BillerMatched BillerOutcome = iota
	BillerAmbiguous
	BillerNotFound
)

// BillerResolution is the result of ResolveBiller. Ambiguity is a normal
// outcome here, not an error: Options carries every tied candidate.
type BillerResolution struct {
	Outcome BillerOutcome
	Match   BillerCandidate
	Options []BillerOption
}

// ResolveBiller finds the biller a free-text reference means. Exact nickname
// matches are collected first; one hit resolves, several are ambiguous. Only
// when there is no exact hit does it fall back to substring matches, with the
// same one/many split. Billers do not use the account scoring model: nickname
// collisions are surfaced to the user instead of being silently ranked.
// An empty or whitespace reference is ErrEmptyQuery, not a NotFound outcome.
func ResolveBiller(reference string, candidates []BillerCandidate) (BillerResolution, error) {
	query := strings.ToLower(strings.TrimSpace(reference))
	if query == "" {
		return BillerResolution{}, ErrEmptyQuery
	}

	var exact, partial []BillerCandidate
	for _, c := range candidates {
		nick := strings.ToLower(strings.TrimSpace(c.Nickname))
		if nick == "" {
			continue
		}
		switch {
		case nick == query:
			exact = append(exact, c)
		case strings.Contains(nick, query):
			partial = append(partial, c)
		}
	}

	pool := exact
	if len(pool) == 0 {
		pool = partial
	}
	switch len(pool) {
	case 0:
		return BillerResolution{Outcome: BillerNotFound}, nil
	case 1:
		return BillerResolution{Outcome: BillerMatched, Match: pool[0]}, nil
	default:
		opts := make([]BillerOption, len(pool))
		for i, c := range pool {
			opts[i] = BillerOption{ID: c.ID, Nickname: c.Nickname}
		}
		return BillerResolution{Outcome: BillerAmbiguous, Options: opts}, nil
	}
}
