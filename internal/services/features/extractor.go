package features

import (
	"math"
	"time"
)

// LogReturns returns ln(p[i]/p[i-1]) for each consecutive pair, or nil for
// fewer than two prices. A pair touching a non-positive price contributes 0.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i, p := range prices[1:] {
		if prev := prices[i]; prev > 0 && p > 0 {
			out[i] = math.Log(p / prev)
		}
	}
	return out
}

// Volatility is the annualized sample standard deviation of returns, given
// how many bars make a year. It is 0 for fewer than two returns.
func Volatility(returns []float64, barsPerYear float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1) * barsPerYear)
}

// BarsPerYear is how many ticks of interval fit in a 365-day year. A
// non-positive interval counts as one second.
func BarsPerYear(interval time.Duration) float64 {
	if interval <= 0 {
		interval = time.Second
	}
	return float64(365*24*time.Hour) / float64(interval)
}

// ChangePercent is the first-to-last move in percent.
func ChangePercent(prices []float64) float64 {
	if len(prices) < 2 || prices[0] == 0 {
		return 0
	}
	first, last := prices[0], prices[len(prices)-1]
	return (last - first) / first * 100
}
