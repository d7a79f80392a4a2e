// Package match scores and ranks extracted records against a search
// key. A record matches when its rendered qualified name contains or
// equals the key under one uniform substring-or-pattern rule; results
// are ordered by score and trimmed to the near-best window.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/mvp-joe/symdex/internal/extract"
)

// Score levels. Only the induced order matters: exact beats
// case-insensitive exact beats trailing-segment equality beats plain
// containment.
const (
	scoreExact    = 10
	scoreFolded   = 8
	scoreTail     = 6
	scoreContains = 2

	// tolerance keeps every record within this many points of the best.
	tolerance = 4
)

// Key is a compiled search key: a literal string, or a regular
// expression when the raw key carries regexp metacharacters and
// compiles.
type Key struct {
	raw    string
	folded string
	re     *regexp.Regexp
}

// NewKey compiles a search key. A key that looks like a pattern but
// does not compile falls back to literal matching.
func NewKey(raw string) Key {
	k := Key{raw: raw, folded: strings.ToLower(raw)}
	if regexp.QuoteMeta(raw) != raw {
		if re, err := regexp.Compile(raw); err == nil {
			k.re = re
		}
	}
	return k
}

// Score returns the match level for one record, 0 for no match.
func (k Key) Score(r extract.Record) int {
	name := r.QualifiedName()
	if k.re != nil {
		loc := k.re.FindStringIndex(name)
		if loc == nil {
			return 0
		}
		if loc[0] == 0 && loc[1] == len(name) {
			return scoreExact
		}
		tail := r.LastSegment()
		if m := k.re.FindStringIndex(tail); m != nil && m[0] == 0 && m[1] == len(tail) {
			return scoreTail
		}
		return scoreContains
	}
	if name == k.raw {
		return scoreExact
	}
	if strings.EqualFold(name, k.raw) {
		return scoreFolded
	}
	if r.LastSegment() == k.raw {
		return scoreTail
	}
	if strings.Contains(strings.ToLower(name), k.folded) {
		return scoreContains
	}
	return 0
}

type scored struct {
	rec   extract.Record
	score int
	dist  int
}

// Rank scores records against key, sorts them best first, and keeps
// only those within the tolerance window of the best score. A key that
// matches nothing yields an empty result, never an error.
func Rank(records []extract.Record, key string) []extract.Record {
	k := NewKey(key)

	var hits []scored
	best := 0
	for _, r := range records {
		sc := k.Score(r)
		if sc == 0 {
			continue
		}
		if sc > best {
			best = sc
		}
		hits = append(hits, scored{
			rec:   r,
			score: sc,
			dist:  levenshtein.Distance(r.QualifiedName(), key, nil),
		})
	}
	if len(hits) == 0 {
		return nil
	}

	kept := hits[:0]
	for _, h := range hits {
		if best-h.score <= tolerance {
			kept = append(kept, h)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		if kept[i].dist != kept[j].dist {
			return kept[i].dist < kept[j].dist
		}
		return kept[i].rec.QualifiedName() < kept[j].rec.QualifiedName()
	})

	out := make([]extract.Record, len(kept))
	for i, h := range kept {
		out[i] = h.rec
	}
	return out
}
