package core

import "strings"

// Selector names one or more tracks. Identifiers are trimmed, empties
// dropped and duplicates removed, keeping first-seen order.
type Selector struct {
	ids []string
}

// One selects a single identifier.
func One(id string) Selector { return Many(id) }

// Many selects several identifiers.
func Many(ids ...string) Selector {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return Selector{ids: out}
}

// IDs returns the normalised identifiers.
func (s Selector) IDs() []string { return s.ids }

// Empty reports whether nothing is selected.
func (s Selector) Empty() bool { return len(s.ids) == 0 }

func (s Selector) first() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[0], true
}

func (s Selector) contains(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}
