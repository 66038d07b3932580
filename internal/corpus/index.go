package corpus

import "slices"

// Table is a string map that remembers first-insertion order for
// diagnostic export. Put on an existing key replaces the value in place.
type Table struct {
	keys   []string
	values map[string]string
}

func NewTable() *Table {
	return &Table{values: make(map[string]string)}
}

// Put reports whether an existing value was replaced.
func (t *Table) Put(key, value string) bool {
	if _, exists := t.values[key]; exists {
		t.values[key] = value
		return true
	}
	t.keys = append(t.keys, key)
	t.values[key] = value
	return false
}

// Delete removes key and its insertion slot.
func (t *Table) Delete(key string) {
	if _, exists := t.values[key]; !exists {
		return
	}
	delete(t.values, key)
	t.keys = slices.DeleteFunc(t.keys, func(k string) bool { return k == key })
}

func (t *Table) Get(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.values[key]
	return v, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Table) Each(fn func(key, value string)) {
	if t == nil {
		return
	}
	for _, k := range t.keys {
		fn(k, t.values[k])
	}
}

type Index struct {
	CodeToText *Table
	NameToText *Table
	CodeToName *Table

	DuplicateCodes int
	DuplicateNames int
}

// BuildIndex folds records into the three lookup tables. Later records win
// on key collisions; detail text is never merged.
func BuildIndex(records []Record) *Index {
	idx := &Index{
		CodeToText: NewTable(),
		NameToText: NewTable(),
		CodeToName: NewTable(),
	}

	for _, rec := range records {
		if idx.CodeToName.Put(rec.Code, rec.Name) {
			idx.DuplicateCodes++
		}
		if rec.Text == "" {
			// A bodiless repeat must not inherit the earlier block's text.
			idx.CodeToText.Delete(rec.Code)
			continue
		}
		idx.CodeToText.Put(rec.Code, rec.Text)
		if idx.NameToText.Put(rec.Name, rec.Text) {
			idx.DuplicateNames++
		}
	}

	return idx
}
