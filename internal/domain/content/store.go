package content

import (
	"fmt"
	"slices"
	"strings"

	"github.com/GriffinCanCode/labmat/internal/domain/explain"
)

// Store is an immutable, validated catalog. Safe for concurrent use.
type Store struct {
	practicals map[int]*Practical
	order      []int
	topics     []TutorTopic
	quickref   []QuickRef
}

// NewStore validates the given content and builds a store.
// Practicals are ordered by id. Topics keep their authored order, which
// defines tutor paging.
func NewStore(practicals []Practical, topics []TutorTopic, quickref []QuickRef) (*Store, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("catalog has no tutor topics")
	}

	s := &Store{
		practicals: make(map[int]*Practical, len(practicals)),
		order:      make([]int, 0, len(practicals)),
		topics:     slices.Clone(topics),
		quickref:   slices.Clone(quickref),
	}

	for i := range practicals {
		p := practicals[i]
		if p.ID <= 0 {
			return nil, fmt.Errorf("practical %q: id must be positive", p.Title)
		}
		if _, dup := s.practicals[p.ID]; dup {
			return nil, fmt.Errorf("duplicate practical id %d", p.ID)
		}
		if err := validateDictionary(p.Explanations); err != nil {
			return nil, fmt.Errorf("practical %d: %w", p.ID, err)
		}
		s.practicals[p.ID] = p.clone()
		s.order = append(s.order, p.ID)
	}
	slices.Sort(s.order)

	seen := make(map[int]bool, len(topics))
	for _, t := range s.topics {
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate tutor topic id %d", t.ID)
		}
		seen[t.ID] = true
	}
	for _, q := range s.quickref {
		if strings.TrimSpace(q.Command) == "" {
			return nil, fmt.Errorf("quick reference %q has no command", q.Label)
		}
	}

	return s, nil
}

func validateDictionary(dict explain.Dictionary) error {
	keys := make(map[string]bool, len(dict))
	for _, e := range dict {
		// A bare terminator normalizes to "" and would match every line.
		if strings.TrimSuffix(strings.TrimSpace(e.Key), explain.Terminator) == "" {
			return fmt.Errorf("empty explanation key")
		}
		if keys[e.Key] {
			return fmt.Errorf("duplicate explanation key %q", e.Key)
		}
		keys[e.Key] = true
	}
	return nil
}

// Practical returns a copy of the practical with the given id.
func (s *Store) Practical(id int) (*Practical, error) {
	p, ok := s.practicals[id]
	if !ok {
		return nil, &ContentNotFoundError{Kind: "practical", ID: id}
	}
	return p.clone(), nil
}

// Has reports whether id resolves to a practical.
func (s *Store) Has(id int) bool {
	_, ok := s.practicals[id]
	return ok
}

// Practicals lists every practical in id order.
func (s *Store) Practicals() []Summary {
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.practicals[id].summary())
	}
	return out
}

// Topics returns the tutor topics in paging order.
func (s *Store) Topics() []TutorTopic {
	return slices.Clone(s.topics)
}

// Topic returns the topic at a zero-based page index.
func (s *Store) Topic(index int) (TutorTopic, bool) {
	if index < 0 || index >= len(s.topics) {
		return TutorTopic{}, false
	}
	return s.topics[index], true
}

// TopicCount is the number of tutor pages. Always at least one.
func (s *Store) TopicCount() int {
	return len(s.topics)
}

// QuickRef returns the command reference list.
func (s *Store) QuickRef() []QuickRef {
	return slices.Clone(s.quickref)
}
