package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
)

var loadingSteps = []string{
	"Connecting to market data streams for %s...",
	"Analyzing price action & volatility models...",
	"Processing sentiment from global news sources...",
	"Generating predictive alpha strategies...",
}

// loading is the cosmetic countdown shown before the analysis starts.
type loading struct {
	duration time.Duration
	elapsed  time.Duration
	spinner  spinner.Model
	bar      progress.Model
}

func newLoading(d time.Duration, st Styles) loading {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Spinner
	return loading{
		duration: d,
		spinner:  sp,
		bar:      progress.New(progress.WithDefaultGradient()),
	}
}

// advance adds dt and reports whether the duration has run out.
func (l *loading) advance(dt time.Duration) bool {
	l.elapsed += dt
	return l.elapsed >= l.duration
}

func (l loading) percent() float64 {
	if l.duration <= 0 {
		return 1
	}
	p := float64(l.elapsed) / float64(l.duration)
	if p > 1 {
		return 1
	}
	return p
}

// step is the index of the message shown for the current progress.
func (l loading) step() int {
	i := int(l.percent() * float64(len(loadingSteps)))
	if i >= len(loadingSteps) {
		i = len(loadingSteps) - 1
	}
	return i
}
