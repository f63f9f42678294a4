// Package bouquet reveals a fixed set of flower messages one at a time.
package bouquet

import "sync"

// Flower is one bouquet entry.
type Flower struct {
	Kind    string
	Message string
}

// Flowers is the bouquet in reveal order.
var Flowers = []Flower{
	{Kind: "rose", Message: "Even miles apart, my prayers travel with you."},
	{Kind: "sunflower", Message: "May your days be filled with sunshine ☀️"},
	{Kind: "tulip", Message: "You are braver than you feel right now."},
	{Kind: "daisy", Message: "Innocence and new beginnings await 🌟"},
	{Kind: "lily", Message: "Rest, heal and get back stronger."},
	{Kind: "cherry blossom", Message: "Beauty in life's fleeting moments 🦋"},
}

// Bouquet tracks how many flowers are shown. Safe for concurrent use.
type Bouquet struct {
	mu    sync.Mutex
	shown int
}

// New returns an empty bouquet.
func New() *Bouquet {
	return &Bouquet{}
}

// Add reveals the next flower. It reports false once every flower is shown.
func (b *Bouquet) Add() (Flower, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shown >= len(Flowers) {
		return Flower{}, false
	}
	f := Flowers[b.shown]
	b.shown++
	return f, true
}

// Reset hides every flower.
func (b *Bouquet) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shown = 0
}

// Revealed returns the shown flowers in order.
func (b *Bouquet) Revealed() []Flower {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Flower(nil), Flowers[:b.shown]...)
}

// Complete reports whether every flower is shown.
func (b *Bouquet) Complete() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown == len(Flowers)
}
