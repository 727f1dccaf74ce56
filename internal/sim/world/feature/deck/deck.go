// Package deck rolls level-up rewards from a weighted card list.
package deck

import "hordesim.ai/internal/sim/catalogs"

// Deck is immutable once built. Cards with the same type and id pool their
// weight.
type Deck struct {
	cards   map[string]catalogs.DeckCard
	weights map[string]float64
	total   float64
}

func New(cards []catalogs.DeckCard) *Deck {
	d := &Deck{
		cards:   make(map[string]catalogs.DeckCard, len(cards)),
		weights: make(map[string]float64, len(cards)),
	}
	for _, c := range cards {
		if c.Weight <= 0 {
			continue
		}
		k := key(c)
		d.weights[k] += c.Weight
		d.total += c.Weight
		c.Weight = d.weights[k]
		d.cards[k] = c
	}
	return d
}

func key(c catalogs.DeckCard) string { return c.Type + ":" + c.ID }

// Roll picks a card with probability weight/total. It reports false for an
// empty deck.
func (d *Deck) Roll(roll uint64) (catalogs.DeckCard, bool) {
	if d == nil || d.total <= 0 {
		return catalogs.DeckCard{}, false
	}
	k := catalogs.SampleWeighted(d.weights, roll)
	if k == "" {
		return catalogs.DeckCard{}, false
	}
	return d.cards[k], true
}

func (d *Deck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.cards)
}

func (d *Deck) TotalWeight() float64 {
	if d == nil {
		return 0
	}
	return d.total
}

// Chance is the probability of rolling the card with the given type and id.
func (d *Deck) Chance(kind, id string) float64 {
	if d == nil || d.total <= 0 {
		return 0
	}
	return d.weights[kind+":"+id] / d.total
}
