package trace

import "github.com/verte-zerg/typetrace/internal/model"

// ErrorTally counts mistyped words and remembers the order in which they first appeared.
type ErrorTally struct {
	order  []string
	counts map[string]int
}

// NewErrorTally returns an empty tally.
func NewErrorTally() *ErrorTally {
	return &ErrorTally{counts: map[string]int{}}
}

// Add increments the count for word, inserting it with count 1 when new.
func (t *ErrorTally) Add(word string) {
	if t.counts == nil {
		t.counts = map[string]int{}
	}
	if t.Count(word) == 0 {
		t.order = append(t.order, word)
	}
	t.counts[word]++
}

// Count returns the count for word, or zero.
func (t *ErrorTally) Count(word string) int {
	return t.counts[word]
}

// Len returns the number of distinct words.
func (t *ErrorTally) Len() int {
	return len(t.order)
}

// Entries flattens the tally in insertion order.
func (t *ErrorTally) Entries() []model.ErrorWord {
	out := make([]model.ErrorWord, 0, t.Len())
	for _, word := range t.order {
		out = append(out, model.ErrorWord{Word: word, Count: t.Count(word)})
	}
	return out
}

// Clone returns an independent copy.
func (t *ErrorTally) Clone() *ErrorTally {
	c := &ErrorTally{
		order:  append(make([]string, 0, t.Len()), t.order...),
		counts: make(map[string]int, t.Len()),
	}
	for k, v := range t.counts {
		c.counts[k] = v
	}
	return c
}
