package features

import (
	"math"
	"math/rand"
	"sync"
)

// RandomWalk produces a geometric random walk of prices. It is safe for
// concurrent use.
type RandomWalk struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	price float64
	sigma float64
}

// NewRandomWalk starts at price (at least 0.01) with per-step volatility
// sigma.
func NewRandomWalk(rnd *rand.Rand, price, sigma float64) *RandomWalk {
	if price < 0.01 {
		price = 0.01
	}
	if sigma <= 0 {
		sigma = 0.002
	}
	return &RandomWalk{rnd: rnd, price: price, sigma: sigma}
}

// Next advances one step and returns the new price rounded to cents.
func (w *RandomWalk) Next() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.price *= math.Exp(w.sigma * w.rnd.NormFloat64())
	if w.price < 0.01 {
		w.price = 0.01
	}
	return math.Round(w.price*100) / 100
}
