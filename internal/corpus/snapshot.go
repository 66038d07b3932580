package corpus

import "time"

type Pair struct {
	Key   string
	Value string
}

// Snapshot is the flat, ordered form of a Corpus used for persistence.
type Snapshot struct {
	BuildID      string
	CompiledAt   time.Time
	CodeToName   []Pair
	CodeToText   []Pair
	NameToText   []Pair
	Rejected     []string
	Suspicious   []Suspicious
	Stats        Stats
	Placeholders Placeholders
}

func (c *Corpus) Snapshot() Snapshot {
	return Snapshot{
		BuildID:      c.buildID,
		CompiledAt:   c.compiledAt,
		CodeToName:   pairs(c.codeToName),
		CodeToText:   pairs(c.codeToText),
		NameToText:   pairs(c.nameToText),
		Rejected:     c.Rejected(),
		Suspicious:   c.Suspicious(),
		Stats:        c.stats,
		Placeholders: c.placeholders,
	}
}

// Restore rebuilds a Corpus from a snapshot. Pair order becomes insertion
// order; repeated keys keep the last value.
func Restore(s Snapshot) *Corpus {
	placeholders := s.Placeholders
	if placeholders.Name == "" {
		placeholders.Name = DefaultPlaceholderName
	}
	if placeholders.Text == "" {
		placeholders.Text = DefaultPlaceholderText
	}

	c := &Corpus{
		buildID:      s.BuildID,
		compiledAt:   s.CompiledAt,
		codeToName:   table(s.CodeToName),
		codeToText:   table(s.CodeToText),
		nameToText:   table(s.NameToText),
		rejected:     append([]string(nil), s.Rejected...),
		suspicious:   append([]Suspicious(nil), s.Suspicious...),
		stats:        s.Stats,
		placeholders: placeholders,
	}
	return c
}

func pairs(t *Table) []Pair {
	out := make([]Pair, 0, t.Len())
	t.Each(func(k, v string) {
		out = append(out, Pair{Key: k, Value: v})
	})
	return out
}

func table(ps []Pair) *Table {
	t := NewTable()
	for _, p := range ps {
		t.Put(p.Key, p.Value)
	}
	return t
}
