// Package generator builds reference texts for typing tests.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/typetrace/internal/model"
)

// DefaultText is the prompt used when no text or word list is configured.
const DefaultText = "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs. How vexingly quick daft zebras jump! The five boxing wizards jump quickly."

// Options controls how generated words are decorated.
type Options struct {
	Count    int
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Generator produces randomized typing text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Text selects words uniformly and joins them into a single prompt.
func (g *Generator) Text(words []string, opts Options) string {
	if len(words) == 0 || opts.Count <= 0 {
		return ""
	}
	out := make([]string, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		out = append(out, g.decorate(words[g.rnd.Intn(len(words))], opts))
	}
	return strings.Join(out, " ")
}

// FocusText selects words with a bias toward ones the user has mistyped before.
// Each word weighs 1 + factor*errors, where errors is its past error total.
func (g *Generator) FocusText(words []string, patterns []model.ErrorPattern, factor float64, opts Options) string {
	if len(words) == 0 || opts.Count <= 0 {
		return ""
	}
	errorsByWord := make(map[string]int, len(patterns))
	for _, p := range patterns {
		errorsByWord[strings.ToLower(p.Word)] += p.TotalErrors
	}
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		w := 1.0 + float64(errorsByWord[strings.ToLower(word)])*factor
		weights[i] = w
		total += w
	}

	out := make([]string, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(words) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		out = append(out, g.decorate(words[idx], opts))
	}
	return strings.Join(out, " ")
}

func (g *Generator) decorate(word string, opts Options) string {
	word = applyCaps(g.rnd, word, opts.CapsPct)
	return applyPunct(g.rnd, word, opts.PunctPct, opts.PunctSet)
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
