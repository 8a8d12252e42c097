package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/logger"
)

// WatcherFactory builds the price watcher for a ticker. An error leaves the
// detail screen without a live price block.
type WatcherFactory func(ticker string) (*usecase.PriceWatcher, error)

type Config struct {
	Theme           string
	LoadingDuration time.Duration
	ShakeFrames     int
	SparklineWidth  int
}

type Option func(*Model)

func WithAuth(a *usecase.Auth) Option {
	return func(m *Model) { m.auth = a }
}

func WithTracker(t *usecase.FunnelTracker) Option {
	return func(m *Model) { m.tracker = t }
}

func WithWatcher(f WatcherFactory) Option {
	return func(m *Model) { m.watch = f }
}

func WithLogger(l *logger.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l.With("tui")
		}
	}
}

// WithContext sets the context analysis, auth and stream calls run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// Model is the root bubbletea model. The navigator owns the session; the
// model only keeps per-screen widget state, which is rebuilt every time a
// screen is entered.
type Model struct {
	ctx     context.Context
	nav     *usecase.Navigator
	runner  usecase.AnalysisRunner
	auth    *usecase.Auth
	tracker *usecase.FunnelTracker
	watch   WatcherFactory
	log     *logger.Logger

	cfg    Config
	styles Styles
	keys   keyMap
	width  int

	// screen is the last screen entered and instance counts entries, so
	// timers started on an earlier screen can be told apart.
	screen   models.Screen
	instance int
	initCmd  tea.Cmd

	cursor   int
	form     authForm
	input    textinput.Model
	inputErr string
	shake    int
	wizard   wizard
	loading  loading
	stream   *liveStream
	notice   string
}

func New(nav *usecase.Navigator, runner usecase.AnalysisRunner, cfg Config, opts ...Option) Model {
	if cfg.LoadingDuration <= 0 {
		cfg.LoadingDuration = 4500 * time.Millisecond
	}
	if cfg.ShakeFrames <= 0 {
		cfg.ShakeFrames = 6
	}
	if cfg.SparklineWidth <= 0 {
		cfg.SparklineWidth = 40
	}

	in := textinput.New()
	in.Placeholder = "e.g. AAPL, TSLA, NVDA"
	in.CharLimit = 16
	in.Prompt = "› "

	m := Model{
		ctx:    context.Background(),
		nav:    nav,
		runner: runner,
		log:    logger.Nop(),
		cfg:    cfg,
		styles: NewStyles(ThemeFor(cfg.Theme)),
		keys:   defaultKeys(),
		width:  80,
		input:  in,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.initCmd = m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("TrackBets"), m.initCmd)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case loadingTickMsg:
		return m, m.onLoadingTick(msg)

	case shakeTickMsg:
		if msg.instance != m.instance || m.shake == 0 {
			return m, nil
		}
		m.shake--
		if m.shake > 0 {
			return m, m.shakeTick()
		}
		return m, nil

	case spinner.TickMsg:
		if m.screen != models.ScreenLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.loading.spinner, cmd = m.loading.spinner.Update(msg)
		return m, cmd

	case analysisDoneMsg:
		if m.nav.CompleteAnalysis(msg.ticket, msg.out) {
			m.notice = msg.out.Notice
		} else {
			m.log.Debug("stale analysis dropped",
				logger.String("ticker", msg.ticket.Ticker),
				logger.Uint64("generation", msg.ticket.Generation))
		}
		return m, nil

	case authDoneMsg:
		if msg.instance != m.instance {
			return m, nil
		}
		m.form.pending = false
		if msg.err != nil {
			m.form.err = msg.err.Error()
			return m, nil
		}
		m.nav.CompleteAuth(msg.user)
		return m, m.sync()

	case loggedOutMsg:
		if msg.err != nil {
			m.log.Error("logout", logger.Error(msg.err))
		}
		return m, nil

	case streamStartedMsg:
		if msg.instance != m.instance || m.screen != models.ScreenDetail || m.stream != nil {
			return m, msg.stream.stopCmd()
		}
		m.stream = msg.stream
		return m, m.stream.wait()

	case streamFailedMsg:
		m.log.Debug("price stream unavailable", logger.Error(msg.err))
		return m, nil

	case priceTickMsg:
		if m.stream == nil || msg.instance != m.stream.instance {
			return m, nil
		}
		return m, m.stream.wait()
	}

	return m, m.updateFocused(msg)
}

// Close releases the price stream. Call it once the program has exited.
func (m *Model) Close() {
	if m.stream != nil {
		m.stream.stop()
		m.stream = nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Home):
		m.nav.GoHome()
		return m.sync()
	case key.Matches(msg, m.keys.Back):
		m.nav.GoBack()
		return m.sync()
	}

	s := m.nav.Snapshot()
	if faulted(s) {
		if key.Matches(msg, m.keys.GoHome) {
			m.nav.GoHome()
			return m.sync()
		}
		return nil
	}

	switch s.CurrentScreen {
	case models.ScreenLanding:
		return m.updateLanding(msg, s)
	case models.ScreenSignUp:
		return m.updateAuth(msg)
	case models.ScreenInput:
		return m.updateInput(msg)
	case models.ScreenWizard:
		return m.updateWizard(msg)
	case models.ScreenDetail:
		return m.updateDetail(msg, s)
	}
	return nil
}

// updateFocused forwards non-key messages (cursor blink) to the focused input.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.screen {
	case models.ScreenInput:
		m.input, cmd = m.input.Update(msg)
	case models.ScreenSignUp:
		cmd = m.form.update(msg)
	case models.ScreenWizard:
		cmd = m.wizard.updateInputs(msg)
	}
	return cmd
}

// sync rebuilds widget state when the navigator has moved to another screen.
func (m *Model) sync() tea.Cmd {
	s := m.nav.Snapshot()
	if s.CurrentScreen == m.screen {
		return nil
	}

	var cmds []tea.Cmd
	if m.screen == models.ScreenDetail {
		cmds = append(cmds, m.stopStream())
	}
	m.screen = s.CurrentScreen
	m.instance++
	m.log.Debug("screen entered",
		logger.String("screen", m.screen.String()),
		logger.Int("instance", m.instance))

	cmds = append(cmds, m.enter(s))
	return tea.Batch(cmds...)
}

func (m *Model) enter(s models.Session) tea.Cmd {
	switch s.CurrentScreen {
	case models.ScreenLanding:
		m.cursor = 0
	case models.ScreenSignUp:
		m.form = newAuthForm(s.Intent == models.IntentLogin)
		return m.form.focusOn(m.form.fields()[0])
	case models.ScreenInput:
		m.input.Reset()
		m.input.SetValue(s.Ticker)
		m.inputErr = ""
		m.shake = 0
		return m.input.Focus()
	case models.ScreenWizard:
		m.wizard = newWizard()
	case models.ScreenLoading:
		m.loading = newLoading(m.cfg.LoadingDuration, m.styles)
		return tea.Batch(m.loadingTick(), m.loading.spinner.Tick)
	case models.ScreenDetail:
		m.notice = ""
		return m.startStream(s.Ticker)
	}
	return nil
}

func (m *Model) updateLanding(msg tea.KeyMsg, s models.Session) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(models.Intents)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		m.nav.StartWizard(models.Intents[m.cursor])
		return m.sync()
	case key.Matches(msg, m.keys.Logout):
		if s.User != nil {
			return m.logout()
		}
	}
	return nil
}

func (m *Model) logout() tea.Cmd {
	m.nav.SetUser(nil)
	if m.auth == nil {
		return nil
	}
	auth, ctx := m.auth, m.ctx
	return func() tea.Msg {
		return loggedOutMsg{err: auth.Logout(ctx)}
	}
}

func (m *Model) updateAuth(msg tea.KeyMsg) tea.Cmd {
	if m.form.pending {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m.form.toggle()
	case key.Matches(msg, m.keys.Prev), msg.Type == tea.KeyUp:
		return m.form.move(-1)
	case msg.Type == tea.KeyDown:
		return m.form.move(1)
	case key.Matches(msg, m.keys.Select):
		if !m.form.last() {
			return m.form.move(1)
		}
		return m.submitAuth()
	}
	return m.form.update(msg)
}

func (m *Model) submitAuth() tea.Cmd {
	if m.auth == nil {
		m.form.err = "Accounts are not available."
		return nil
	}
	m.form.pending = true
	m.form.err = ""

	auth, ctx, inst := m.auth, m.ctx, m.instance
	login := m.form.mode == modeLogin
	email, password := m.form.value(fieldEmail), m.form.value(fieldPassword)
	signup := m.form.signUpForm()
	return func() tea.Msg {
		var (
			u   *models.User
			err error
		)
		if login {
			u, err = auth.Login(ctx, email, password)
		} else {
			u, err = auth.SignUp(ctx, signup)
		}
		return authDoneMsg{instance: inst, user: u, err: err}
	}
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Select) {
		err := m.nav.FinishInput(m.input.Value())
		if errors.Is(err, usecase.ErrEmptyTicker) {
			m.inputErr = "Enter a ticker symbol to continue."
			running := m.shake > 0
			m.shake = m.cfg.ShakeFrames
			if running {
				return nil
			}
			return m.shakeTick()
		}
		return m.sync()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != strings.ToUpper(v) {
		m.input.SetValue(strings.ToUpper(v))
	}
	m.inputErr = ""
	return cmd
}

func (m *Model) updateWizard(msg tea.KeyMsg) tea.Cmd {
	done, cmd := m.wizard.update(msg, m.keys)
	if !done {
		return cmd
	}
	m.nav.FinishWizard(m.wizard.answers)
	return m.sync()
}

func (m *Model) updateDetail(msg tea.KeyMsg, s models.Session) tea.Cmd {
	if !key.Matches(msg, m.keys.Retry) || s.IsLoading {
		return nil
	}
	ticket, err := m.nav.OnRetry()
	if err != nil {
		m.log.Warn("retry", logger.Error(err))
		return nil
	}
	m.tracker.Retried(ticket.Ticker)
	m.notice = ""
	return m.analyze(ticket)
}

func (m *Model) shakeTick() tea.Cmd {
	inst := m.instance
	return tea.Tick(shakeTick, func(time.Time) tea.Msg {
		return shakeTickMsg{instance: inst}
	})
}

func (m *Model) loadingTick() tea.Cmd {
	inst := m.instance
	return tea.Tick(loadingTick, func(time.Time) tea.Msg {
		return loadingTickMsg{instance: inst}
	})
}

func (m *Model) onLoadingTick(msg loadingTickMsg) tea.Cmd {
	if msg.instance != m.instance || m.screen != models.ScreenLoading {
		return nil
	}
	if !m.loading.advance(loadingTick) {
		return m.loadingTick()
	}
	ticket := m.nav.OnLoadingComplete()
	return tea.Batch(m.sync(), m.analyze(ticket))
}

// analyze runs the analysis off the event loop and reports back through
// analysisDoneMsg.
func (m *Model) analyze(ticket usecase.AnalysisTicket) tea.Cmd {
	runner, ctx := m.runner, m.ctx
	return func() tea.Msg {
		return analysisDoneMsg{ticket: ticket, out: runAnalysis(ctx, runner, ticket.Ticker)}
	}
}

func runAnalysis(ctx context.Context, runner usecase.AnalysisRunner, ticker string) (out usecase.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = usecase.Outcome{Err: fmt.Errorf("analysis panicked: %v", r)}
		}
	}()
	if runner == nil {
		return usecase.Outcome{Err: usecase.ErrNoRunner}
	}
	return runner.Run(ctx, ticker)
}

func (m *Model) stopStream() tea.Cmd {
	s := m.stream
	m.stream = nil
	if s == nil {
		return nil
	}
	return s.stopCmd()
}

func (m *Model) startStream(ticker string) tea.Cmd {
	if m.watch == nil || ticker == "" {
		return nil
	}
	factory, ctx, inst := m.watch, m.ctx, m.instance
	return func() tea.Msg {
		w, err := factory(ticker)
		if err != nil {
			return streamFailedMsg{instance: inst, err: err}
		}
		s := newLiveStream(w, inst)
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			return streamFailedMsg{instance: inst, err: err}
		}
		return streamStartedMsg{instance: inst, stream: s}
	}
}

func (m Model) View() string {
	s := m.nav.Snapshot()

	var body string
	switch {
	case faulted(s):
		body = errorView(m.styles, m.keys, s)
	case s.CurrentScreen == models.ScreenLanding:
		body = landingView(m.styles, m.keys, s, m.cursor)
	case s.CurrentScreen == models.ScreenSignUp:
		body = authView(m.styles, m.keys, m.form)
	case s.CurrentScreen == models.ScreenInput:
		body = inputView(m.styles, m.keys, s, m.input.View(), m.inputErr, m.shake)
	case s.CurrentScreen == models.ScreenWizard:
		body = wizardView(m.styles, m.keys, s, m.wizard)
	case s.CurrentScreen == models.ScreenLoading:
		body = loadingView(m.styles, s, m.loading, m.width)
	case s.CurrentScreen == models.ScreenDetail:
		var live *usecase.PriceView
		if m.stream != nil {
			v := m.stream.watcher.View(m.cfg.SparklineWidth)
			live = &v
		}
		body = detailView(m.styles, m.keys, s, m.notice, live, m.width)
	}
	return m.styles.App.Render(headerView(m.styles, s) + "\n\n" + body)
}

func faulted(s models.Session) bool {
	return s.Fault != "" || !s.CurrentScreen.Valid()
}
