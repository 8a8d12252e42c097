package features

import "sync"

// Series keeps the most recent prices of one ticker.
type Series struct {
	mu    sync.RWMutex
	buf   []float64
	start int
	size  int
}

// NewSeries returns a series holding at most capacity prices (minimum 2).
func NewSeries(capacity int) *Series {
	if capacity < 2 {
		capacity = 2
	}
	return &Series{buf: make([]float64, capacity)}
}

// Push appends a price, overwriting the oldest when full.
func (s *Series) Push(price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size < len(s.buf) {
		s.buf[(s.start+s.size)%len(s.buf)] = price
		s.size++
		return
	}
	s.buf[s.start] = price
	s.start = (s.start + 1) % len(s.buf)
}

// Values returns the prices oldest first.
func (s *Series) Values() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float64, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// Last returns the newest price.
func (s *Series) Last() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.size == 0 {
		return 0, false
	}
	return s.buf[(s.start+s.size-1)%len(s.buf)], true
}

func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Reset drops every price.
func (s *Series) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start, s.size = 0, 0
}
