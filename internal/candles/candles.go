// Package candles tracks which candles on the cake have been extinguished.
package candles

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrInvalidIndex reports a candle index outside [0, total).
var ErrInvalidIndex = errors.New("candle index out of range")

// Variant selects how extinguished candles are recorded.
type Variant string

const (
	// VariantIndexed records the exact set of extinguished candles.
	VariantIndexed Variant = "indexed"
	// VariantCounter records only how many candles are out.
	VariantCounter Variant = "counter"
)

// ParseVariant normalizes a config value into a Variant.
func ParseVariant(raw string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(raw))) {
	case VariantIndexed:
		return VariantIndexed, nil
	case VariantCounter:
		return VariantCounter, nil
	default:
		return "", fmt.Errorf("unknown candle variant %q (want indexed or counter)", raw)
	}
}

// Tracker is the authoritative record of extinguished candles for one session.
type Tracker interface {
	Variant() Variant
	Total() int
	Extinguished() int
	IsLit(index int) bool
	// ExtinguishAt handles a click on one candle.
	ExtinguishAt(index int) (bool, error)
	// ExtinguishNext handles one blow that puts out a single candle.
	ExtinguishNext() bool
	ExtinguishAll() bool
	IsComplete() bool
	Relight()
}

// New builds an empty tracker of the requested variant.
func New(variant Variant, total int) (Tracker, error) {
	if total < 1 {
		return nil, fmt.Errorf("candle total must be >= 1, got %d", total)
	}
	switch variant {
	case VariantIndexed:
		return NewIndexed(total), nil
	case VariantCounter:
		return NewCounter(total), nil
	default:
		return nil, fmt.Errorf("unknown candle variant %q", variant)
	}
}

func checkIndex(index, total int) error {
	if index < 0 || index >= total {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidIndex, index, total)
	}
	return nil
}

// Indexed keeps the set of extinguished candle indices, so candles can be
// put out in any order.
type Indexed struct {
	total int
	out   map[int]struct{}
	pick  func(n int) int
}

// NewIndexed returns an all-lit indexed tracker. total is clamped to 1.
func NewIndexed(total int) *Indexed {
	if total < 1 {
		total = 1
	}
	return &Indexed{
		total: total,
		out:   make(map[int]struct{}, total),
		pick:  rand.IntN,
	}
}

func (s *Indexed) Variant() Variant { return VariantIndexed }
func (s *Indexed) Total() int       { return s.total }
func (s *Indexed) Extinguished() int {
	return len(s.out)
}

func (s *Indexed) IsLit(index int) bool {
	if index < 0 || index >= s.total {
		return false
	}
	_, out := s.out[index]
	return !out
}

func (s *Indexed) ExtinguishAt(index int) (bool, error) {
	if err := checkIndex(index, s.total); err != nil {
		return false, err
	}
	if _, out := s.out[index]; out {
		return false, nil
	}
	s.out[index] = struct{}{}
	return true, nil
}

// ExtinguishNext puts out a uniformly chosen lit candle.
func (s *Indexed) ExtinguishNext() bool {
	lit := s.Lit()
	if len(lit) == 0 {
		return false
	}
	s.out[lit[s.pick(len(lit))]] = struct{}{}
	return true
}

func (s *Indexed) ExtinguishAll() bool {
	if s.IsComplete() {
		return false
	}
	for i := 0; i < s.total; i++ {
		s.out[i] = struct{}{}
	}
	return true
}

func (s *Indexed) IsComplete() bool {
	return len(s.out) == s.total
}

func (s *Indexed) Relight() {
	clear(s.out)
}

// Lit returns the lit candle indices in ascending order.
func (s *Indexed) Lit() []int {
	lit := make([]int, 0, s.total-len(s.out))
	for i := 0; i < s.total; i++ {
		if _, out := s.out[i]; !out {
			lit = append(lit, i)
		}
	}
	return lit
}

// Counter only counts extinguished candles. Candles go out left to right
// whichever one is clicked.
type Counter struct {
	total int
	count int
}

// NewCounter returns an all-lit counter tracker. total is clamped to 1.
func NewCounter(total int) *Counter {
	if total < 1 {
		total = 1
	}
	return &Counter{total: total}
}

func (c *Counter) Variant() Variant  { return VariantCounter }
func (c *Counter) Total() int        { return c.total }
func (c *Counter) Extinguished() int { return c.count }

func (c *Counter) IsLit(index int) bool {
	return index >= c.count && index < c.total
}

// ExtinguishAt validates the clicked index and then counts one more candle out.
func (c *Counter) ExtinguishAt(index int) (bool, error) {
	if err := checkIndex(index, c.total); err != nil {
		return false, err
	}
	return c.ExtinguishNext(), nil
}

func (c *Counter) ExtinguishNext() bool {
	if c.count >= c.total {
		return false
	}
	c.count++
	return true
}

func (c *Counter) ExtinguishAll() bool {
	if c.count == c.total {
		return false
	}
	c.count = c.total
	return true
}

func (c *Counter) IsComplete() bool {
	return c.count == c.total
}

func (c *Counter) Relight() {
	c.count = 0
}
