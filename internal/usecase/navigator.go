package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"TrackBets/internal/domain/models"
	"TrackBets/pkg/util"
)

var (
	ErrUnknownScreen = errors.New("unknown screen")
	ErrEmptyTicker   = errors.New("ticker is empty")
	ErrNoTicker      = errors.New("no ticker to analyze")
	ErrNoRunner      = errors.New("no analysis runner configured")
)

// AnalysisTicket identifies one analysis request. Only the ticket of the
// latest generation may complete it.
type AnalysisTicket struct {
	Generation uint64
	Ticker     string
}

// Outcome is what an analysis run produced. Result is set on success and on
// fallback (with Notice holding the cause); Err is set otherwise.
type Outcome struct {
	Result *models.AnalysisResult
	Notice string
	Err    error
}

// AnalysisRunner runs one analysis to completion.
type AnalysisRunner interface {
	Run(ctx context.Context, ticker string) Outcome
}

// NavigationObserver is told about every screen shown.
type NavigationObserver interface {
	ScreenViewed(screen models.Screen, intent models.Intent, ticker string)
}

type NavigatorOption func(*Navigator)

// WithObserver attaches an observer of screen changes.
func WithObserver(o NavigationObserver) NavigatorOption {
	return func(n *Navigator) { n.observer = o }
}

// WithRunner sets the runner used by HandleAnalyze.
func WithRunner(r AnalysisRunner) NavigatorOption {
	return func(n *Navigator) { n.runner = r }
}

// WithUser starts the session logged in.
func WithUser(u *models.User) NavigatorOption {
	return func(n *Navigator) {
		if u != nil {
			cp := *u
			n.s.User = &cp
		}
	}
}

// Navigator owns the session state and is the only way to change it.
// All methods are safe for concurrent use.
type Navigator struct {
	mu       sync.Mutex
	s        models.Session
	observer NavigationObserver
	runner   AnalysisRunner
}

// NewNavigator returns a navigator on the landing screen.
func NewNavigator(opts ...NavigatorOption) *Navigator {
	n := &Navigator{s: models.NewSession()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// view is a screen change to report once the lock is released.
type view struct {
	screen models.Screen
	intent models.Intent
	ticker string
}

func (n *Navigator) notify(v *view) {
	if v != nil && n.observer != nil {
		n.observer.ScreenViewed(v.screen, v.intent, v.ticker)
	}
}

// GoHome resets every selection, the analysis slot and history. The user
// stays logged in.
func (n *Navigator) GoHome() {
	n.mu.Lock()
	v := n.goHome()
	n.mu.Unlock()
	n.notify(v)
}

func (n *Navigator) goHome() *view {
	user, gen := n.s.User, n.s.Generation
	n.s = models.NewSession()
	n.s.User = user
	n.s.Generation = gen + 1
	return &view{screen: models.ScreenLanding}
}

// NavigateTo shows screen. An unknown screen leaves the current one in place,
// sets Fault and returns ErrUnknownScreen.
func (n *Navigator) NavigateTo(screen models.Screen) error {
	n.mu.Lock()
	if !screen.Valid() {
		n.s.Fault = fmt.Sprintf("unknown screen %q", string(screen))
		n.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownScreen, string(screen))
	}
	v := n.navigate(screen)
	n.mu.Unlock()
	n.notify(v)
	return nil
}

// navigate pushes the current screen (never loading) and switches. Caller
// holds the lock.
func (n *Navigator) navigate(screen models.Screen) *view {
	if n.s.CurrentScreen != models.ScreenLoading {
		n.s.History = append(n.s.History, n.s.CurrentScreen)
	}
	n.show(screen)
	return &view{screen: screen, intent: n.s.Intent, ticker: n.s.Ticker}
}

func (n *Navigator) show(screen models.Screen) {
	if n.s.CurrentScreen == models.ScreenDetail && screen != models.ScreenDetail {
		n.discardAnalysis()
	}
	n.s.CurrentScreen = screen
	n.s.Fault = ""
}

func (n *Navigator) discardAnalysis() {
	n.s.Analysis = nil
	n.s.AnalysisError = ""
	n.s.IsLoading = false
	n.s.Generation++
}

// GoBack returns to the previous screen, or home when there is none.
func (n *Navigator) GoBack() {
	n.mu.Lock()
	var v *view
	if len(n.s.History) == 0 {
		v = n.goHome()
	} else {
		last := n.s.History[len(n.s.History)-1]
		n.s.History = n.s.History[:len(n.s.History)-1]
		n.show(last)
		v = &view{screen: last, intent: n.s.Intent, ticker: n.s.Ticker}
	}
	n.mu.Unlock()
	n.notify(v)
}

// StartWizard records the intent and continues to signup when nobody is
// logged in, otherwise to the asset input.
func (n *Navigator) StartWizard(intent models.Intent) {
	n.mu.Lock()
	n.s.Intent = intent
	next := models.ScreenInput
	if n.s.User == nil {
		next = models.ScreenSignUp
	}
	v := n.navigate(next)
	n.mu.Unlock()
	n.notify(v)
}

// CompleteAuth stores the authenticated user and continues to the asset input.
func (n *Navigator) CompleteAuth(u *models.User) {
	n.mu.Lock()
	if u != nil {
		cp := *u
		n.s.User = &cp
	}
	v := n.navigate(models.ScreenInput)
	n.mu.Unlock()
	n.notify(v)
}

// SetUser replaces the logged-in user without navigating. nil logs out.
func (n *Navigator) SetUser(u *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if u == nil {
		n.s.User = nil
		return
	}
	cp := *u
	n.s.User = &cp
}

// FinishInput stores the upper-cased ticker and moves on to the wizard. An
// empty ticker returns ErrEmptyTicker without a transition.
func (n *Navigator) FinishInput(ticker string) error {
	t := util.NormalizeSymbol(ticker)
	if t == "" {
		return ErrEmptyTicker
	}

	n.mu.Lock()
	n.s.Ticker = t
	v := n.navigate(models.ScreenWizard)
	n.mu.Unlock()
	n.notify(v)
	return nil
}

// FinishWizard stores the answers and moves on to the loading screen.
func (n *Navigator) FinishWizard(answers models.WizardAnswers) {
	n.mu.Lock()
	n.s.Wizard = answers
	v := n.navigate(models.ScreenLoading)
	n.mu.Unlock()
	n.notify(v)
}

// OnLoadingComplete starts the analysis for the current ticker and shows the
// detail screen right away. The caller runs the analysis and reports back
// through CompleteAnalysis.
func (n *Navigator) OnLoadingComplete() AnalysisTicket {
	n.mu.Lock()
	ticket := n.begin(n.s.Ticker)
	v := n.navigate(models.ScreenDetail)
	n.mu.Unlock()
	n.notify(v)
	return ticket
}

// OnRetry starts a new analysis for the last known ticker.
func (n *Navigator) OnRetry() (AnalysisTicket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.s.Ticker == "" {
		return AnalysisTicket{}, ErrNoTicker
	}
	return n.begin(n.s.Ticker), nil
}

// begin opens a new generation. Caller holds the lock.
func (n *Navigator) begin(ticker string) AnalysisTicket {
	n.s.Generation++
	n.s.Ticker = ticker
	n.s.IsLoading = true
	n.s.Analysis = nil
	n.s.AnalysisError = ""
	return AnalysisTicket{Generation: n.s.Generation, Ticker: ticker}
}

// CompleteAnalysis applies an outcome if ticket is still the latest
// generation and reports whether it did. The loading flag always ends false
// for the applied generation, and either a result or an error is set.
func (n *Navigator) CompleteAnalysis(ticket AnalysisTicket, out Outcome) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ticket.Generation != n.s.Generation {
		return false
	}

	n.s.IsLoading = false
	n.s.Analysis = out.Result
	n.s.AnalysisError = ""
	switch {
	case out.Err != nil:
		n.s.AnalysisError = out.Err.Error()
	case out.Result == nil:
		n.s.AnalysisError = "analysis returned no result"
	}
	return true
}

// HandleAnalyze runs a whole analysis synchronously: begin, run, complete.
// Completion is deferred so the loading flag is cleared even if the runner
// panics.
func (n *Navigator) HandleAnalyze(ctx context.Context, ticker string) (out Outcome) {
	n.mu.Lock()
	ticket := n.begin(util.NormalizeSymbol(ticker))
	n.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("analysis panicked: %v", r)}
		}
		n.CompleteAnalysis(ticket, out)
	}()

	if n.runner == nil {
		return Outcome{Err: ErrNoRunner}
	}
	return n.runner.Run(ctx, ticket.Ticker)
}

// Snapshot returns a deep copy of the session.
func (n *Navigator) Snapshot() models.Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.s.Clone()
}

// Restore replaces the session with s. Loading entries are dropped from
// history and an unknown current screen falls back to landing with Fault set.
func (n *Navigator) Restore(s models.Session) {
	s = s.Clone()
	history := s.History[:0]
	for _, h := range s.History {
		if h != models.ScreenLoading && h.Valid() {
			history = append(history, h)
		}
	}
	s.History = history

	if !s.CurrentScreen.Valid() {
		s.Fault = fmt.Sprintf("unknown screen %q", string(s.CurrentScreen))
		s.CurrentScreen = models.ScreenLanding
	}

	n.mu.Lock()
	// Generations strictly increase across restores, so tickets issued
	// before the restore never match.
	if s.Generation <= n.s.Generation {
		s.Generation = n.s.Generation + 1
	}
	n.s = s
	n.mu.Unlock()
}
