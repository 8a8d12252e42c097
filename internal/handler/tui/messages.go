package tui

import (
	"time"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/usecase"
)

const (
	loadingTick = 100 * time.Millisecond
	shakeTick   = 50 * time.Millisecond
)

// Timer messages carry the instance of the screen that scheduled them and
// are dropped once that screen is gone.

type loadingTickMsg struct{ instance int }

type shakeTickMsg struct{ instance int }

type analysisDoneMsg struct {
	ticket usecase.AnalysisTicket
	out    usecase.Outcome
}

type authDoneMsg struct {
	instance int
	user     *models.User
	err      error
}

type loggedOutMsg struct{ err error }

type streamStartedMsg struct {
	instance int
	stream   *liveStream
}

type streamFailedMsg struct {
	instance int
	err      error
}

type priceTickMsg struct{ instance int }
