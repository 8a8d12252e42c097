package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/usecase"
)

// liveStream bridges a PriceWatcher into the event loop: every accepted tick
// wakes one pending wait command, which asks for a redraw.
type liveStream struct {
	watcher  *usecase.PriceWatcher
	ticks    chan struct{}
	instance int
}

func newLiveStream(w *usecase.PriceWatcher, instance int) *liveStream {
	s := &liveStream{watcher: w, ticks: make(chan struct{}, 1), instance: instance}
	w.OnTick(func(*models.PriceTick) {
		select {
		case s.ticks <- struct{}{}:
		default:
		}
	})
	return s
}

func (s *liveStream) wait() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-s.ticks; !ok {
			return nil
		}
		return priceTickMsg{instance: s.instance}
	}
}

// stop waits for the watcher to finish before closing ticks, so OnTick never
// sends on a closed channel.
func (s *liveStream) stop() {
	_ = s.watcher.Stop()
	close(s.ticks)
}

func (s *liveStream) stopCmd() tea.Cmd {
	return func() tea.Msg {
		s.stop()
		return nil
	}
}
