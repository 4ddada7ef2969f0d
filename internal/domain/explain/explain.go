package explain

import (
	"iter"
	"strings"
)

// CommentMarker starts a comment line.
const CommentMarker = "%"

// Terminator is the optional statement terminator stripped before matching.
const Terminator = ";"

// Entry is one explained line.
type Entry struct {
	Line        string   `json:"line"`
	Explanation string   `json:"explanation"`
	Source      RuleKind `json:"rule"`
}

// DictionaryEntry maps a line fragment to its explanation.
type DictionaryEntry struct {
	Key   string `json:"key" yaml:"key" toml:"key"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Dictionary is an ordered per-practical explanation table.
// Order matters: the first matching entry wins.
type Dictionary []DictionaryEntry

// Lookup returns the value stored under key.
func (d Dictionary) Lookup(key string) (string, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// normalize trims whitespace and one trailing terminator.
func normalize(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), Terminator)
}

// executable reports whether a raw source line produces an entry.
func executable(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed != "" && !strings.HasPrefix(trimmed, CommentMarker)
}

// Explain yields one Entry per executable line of source. The sequence is
// lazy and may be ranged over any number of times with identical results.
func Explain(source string, dict Dictionary) iter.Seq[Entry] {
	rules := Rules(dict)
	return func(yield func(Entry) bool) {
		for raw := range strings.Lines(source) {
			if !executable(raw) {
				continue
			}
			line := normalize(raw)
			rule := Dispatch(rules, line)
			if !yield(Entry{Line: line, Explanation: rule.Explanation, Source: rule.Kind}) {
				return
			}
		}
	}
}

// Collect runs Explain and gathers the entries into a slice.
func Collect(source string, dict Dictionary) []Entry {
	entries := make([]Entry, 0, Count(source))
	for e := range Explain(source, dict) {
		entries = append(entries, e)
	}
	return entries
}

// Count returns the number of executable lines in source.
func Count(source string) int {
	n := 0
	for raw := range strings.Lines(source) {
		if executable(raw) {
			n++
		}
	}
	return n
}
