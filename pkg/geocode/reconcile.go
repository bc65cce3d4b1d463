package geocode

import (
	"strings"

	"go.uber.org/zap"
)

// reconcile turns raw response rows into one Match per input address, in
// input order. When Census returns several rows for one id the best-ranked row
// wins and ties keep the first row seen. Rows for unknown ids are dropped.
// Inputs with no row get a synthesized No_Match.
func reconcile(addrs []AddressInput, raw []Match) []Match {
	want := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		want[a.ID] = true
	}

	best := make(map[string]Match, len(raw))
	var dropped int
	for _, m := range raw {
		if !want[m.ID] {
			dropped++
			continue
		}
		cur, seen := best[m.ID]
		if !seen || rank(m) > rank(cur) {
			best[m.ID] = m
		}
	}
	if dropped > 0 {
		zap.L().Warn("geocode: dropped response rows for unknown address ids", zap.Int("rows", dropped))
	}

	out := make([]Match, len(addrs))
	for i, a := range addrs {
		m, ok := best[a.ID]
		if !ok {
			m = Match{
				ID:           a.ID,
				InputAddress: formatOneLine(a),
				Status:       StatusNoMatch,
				Synthesized:  true,
			}
		}
		out[i] = m
	}
	return out
}

func rank(m Match) int {
	switch m.Status {
	case StatusMatch:
		if strings.EqualFold(m.MatchType, "Exact") {
			return 3
		}
		return 2
	case StatusTie:
		return 1
	default:
		return 0
	}
}

// formatOneLine formats an address as a single line for Census API.
func formatOneLine(addr AddressInput) string {
	parts := []string{addr.Street, addr.City, addr.State, addr.ZipCode}
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// Stats counts batch outcomes.
type Stats struct {
	Total       int
	Matched     int
	NoMatch     int
	Tie         int
	Synthesized int
}

// Summarize counts the outcomes in matches.
func Summarize(matches []Match) Stats {
	s := Stats{Total: len(matches)}
	for _, m := range matches {
		switch m.Status {
		case StatusMatch:
			s.Matched++
		case StatusTie:
			s.Tie++
		default:
			s.NoMatch++
		}
		if m.Synthesized {
			s.Synthesized++
		}
	}
	return s
}
