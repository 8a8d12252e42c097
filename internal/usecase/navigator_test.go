package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrackBets/internal/domain/models"
)

var testUser = &models.User{FirstName: "Asha", Email: "asha@example.com", Password: "secret1"}

func okRunner(ticker string) AnalysisRunner {
	return runnerFunc(func(context.Context, string) Outcome {
		return Outcome{Result: &models.AnalysisResult{Ticker: ticker, Source: models.SourceLive}}
	})
}

func TestNavigatorStartsOnLanding(t *testing.T) {
	s := NewNavigator().Snapshot()
	assert.Equal(t, models.ScreenLanding, s.CurrentScreen)
	assert.Empty(t, s.History)
	assert.Nil(t, s.User)
}

func TestStartWizardWithoutUserGoesToSignup(t *testing.T) {
	n := NewNavigator()
	n.StartWizard(models.IntentBuy)

	s := n.Snapshot()
	assert.Equal(t, models.ScreenSignUp, s.CurrentScreen)
	assert.Equal(t, models.IntentBuy, s.Intent)
	assert.Equal(t, []models.Screen{models.ScreenLanding}, s.History)

	n.CompleteAuth(testUser)
	s = n.Snapshot()
	assert.Equal(t, models.ScreenInput, s.CurrentScreen)
	assert.Equal(t, "Asha", s.User.DisplayName())
}

func TestStartWizardWithUserGoesToInput(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	n.StartWizard(models.IntentTrack)
	assert.Equal(t, models.ScreenInput, n.Snapshot().CurrentScreen)
}

func TestFullFlowToDetail(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	n.StartWizard(models.IntentBuy)
	require.NoError(t, n.FinishInput("  tsla "))
	n.FinishWizard(models.WizardAnswers{PriceStrategy: models.PriceMarket})
	assert.Equal(t, models.ScreenLoading, n.Snapshot().CurrentScreen)

	ticket := n.OnLoadingComplete()
	s := n.Snapshot()
	assert.Equal(t, models.ScreenDetail, s.CurrentScreen)
	assert.True(t, s.IsLoading)
	assert.Equal(t, "TSLA", ticket.Ticker)
	assert.Equal(t, []models.Screen{models.ScreenLanding, models.ScreenInput, models.ScreenWizard}, s.History,
		"loading is never pushed")

	require.True(t, n.CompleteAnalysis(ticket, Outcome{Result: &models.AnalysisResult{Ticker: "TSLA"}}))
	s = n.Snapshot()
	assert.False(t, s.IsLoading)
	assert.Equal(t, "TSLA", s.Analysis.Ticker)
	assert.Equal(t, models.PriceMarket, s.Wizard.PriceStrategy)
}

func TestGoBackSkipsLoading(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	n.StartWizard(models.IntentBuy)
	require.NoError(t, n.FinishInput("tsla"))
	n.FinishWizard(models.WizardAnswers{})
	n.OnLoadingComplete()

	n.GoBack()
	s := n.Snapshot()
	assert.Equal(t, models.ScreenWizard, s.CurrentScreen)
	assert.Nil(t, s.Analysis, "leaving detail discards the analysis")
	assert.False(t, s.IsLoading)

	n.GoBack()
	n.GoBack()
	assert.Equal(t, models.ScreenLanding, n.Snapshot().CurrentScreen)
	for _, h := range n.Snapshot().History {
		assert.NotEqual(t, models.ScreenLoading, h)
	}
}

func TestGoBackWithEmptyHistoryGoesHome(t *testing.T) {
	n := NewNavigator()
	n.GoBack()
	s := n.Snapshot()
	assert.Equal(t, models.ScreenLanding, s.CurrentScreen)
	assert.Empty(t, s.History)
}

func TestGoHomeResetsButKeepsUser(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	n.StartWizard(models.IntentSell)
	require.NoError(t, n.FinishInput("reliance.ns"))
	n.FinishWizard(models.WizardAnswers{Ownership: true, Units: 3})
	n.OnLoadingComplete()

	n.GoHome()
	first := n.Snapshot()
	assert.Equal(t, models.ScreenLanding, first.CurrentScreen)
	assert.Empty(t, first.History)
	assert.Empty(t, first.Ticker)
	assert.Equal(t, models.IntentNone, first.Intent)
	assert.Equal(t, models.WizardAnswers{}, first.Wizard)
	assert.Nil(t, first.Analysis)
	assert.False(t, first.IsLoading)
	require.NotNil(t, first.User)
	assert.Equal(t, testUser.Email, first.User.Email)

	n.GoHome()
	second := n.Snapshot()
	second.Generation = first.Generation
	assert.Equal(t, first, second, "GoHome is idempotent")
}

func TestFinishInputEmptyTickerNoTransition(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	n.StartWizard(models.IntentBuy)
	before := n.Snapshot()

	for _, in := range []string{"", "   ", "\t"} {
		err := n.FinishInput(in)
		assert.ErrorIs(t, err, ErrEmptyTicker)
	}
	assert.Equal(t, before, n.Snapshot())
}

func TestNavigateToUnknownScreen(t *testing.T) {
	n := NewNavigator()
	err := n.NavigateTo(models.Screen("portfolio"))
	require.ErrorIs(t, err, ErrUnknownScreen)

	s := n.Snapshot()
	assert.Equal(t, models.ScreenLanding, s.CurrentScreen)
	assert.Contains(t, s.Fault, "portfolio")

	require.NoError(t, n.NavigateTo(models.ScreenSignUp))
	assert.Empty(t, n.Snapshot().Fault)
}

func TestStaleAnalysisIsDropped(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	require.NoError(t, n.FinishInput("TSLA"))
	first := n.OnLoadingComplete()

	second, err := n.OnRetry()
	require.NoError(t, err)
	assert.Greater(t, second.Generation, first.Generation)

	assert.False(t, n.CompleteAnalysis(first, Outcome{Result: &models.AnalysisResult{Ticker: "OLD"}}))
	s := n.Snapshot()
	assert.True(t, s.IsLoading)
	assert.Nil(t, s.Analysis)

	assert.True(t, n.CompleteAnalysis(second, Outcome{Result: &models.AnalysisResult{Ticker: "TSLA"}}))
	assert.Equal(t, "TSLA", n.Snapshot().Analysis.Ticker)
}

func TestGoHomeInvalidatesInFlightAnalysis(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	require.NoError(t, n.FinishInput("TSLA"))
	ticket := n.OnLoadingComplete()
	n.GoHome()

	assert.False(t, n.CompleteAnalysis(ticket, Outcome{Result: &models.AnalysisResult{Ticker: "TSLA"}}))
	s := n.Snapshot()
	assert.Equal(t, models.ScreenLanding, s.CurrentScreen)
	assert.Nil(t, s.Analysis)
}

func TestOnRetryWithoutTicker(t *testing.T) {
	_, err := NewNavigator().OnRetry()
	assert.ErrorIs(t, err, ErrNoTicker)
}

func TestCompleteAnalysisAlwaysSetsResultOrError(t *testing.T) {
	n := NewNavigator()
	require.NoError(t, n.FinishInput("TSLA"))

	cases := []Outcome{
		{},
		{Err: errors.New("API Error: 500: boom")},
		{Result: &models.AnalysisResult{Ticker: "TSLA"}},
	}
	for _, out := range cases {
		ticket, err := n.OnRetry()
		require.NoError(t, err)
		require.True(t, n.CompleteAnalysis(ticket, out))

		s := n.Snapshot()
		assert.False(t, s.IsLoading)
		assert.True(t, s.Analysis != nil || s.AnalysisError != "")
	}
}

func TestHandleAnalyzeClearsLoading(t *testing.T) {
	cases := []struct {
		name    string
		runner  AnalysisRunner
		wantErr bool
	}{
		{name: "success", runner: okRunner("TSLA")},
		{name: "error", runner: runnerFunc(func(context.Context, string) Outcome {
			return Outcome{Err: errors.New("network down")}
		}), wantErr: true},
		{name: "panic", runner: runnerFunc(func(context.Context, string) Outcome {
			panic("runner exploded")
		}), wantErr: true},
		{name: "no runner", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var opts []NavigatorOption
			if tc.runner != nil {
				opts = append(opts, WithRunner(tc.runner))
			}
			n := NewNavigator(opts...)

			out := n.HandleAnalyze(context.Background(), " tsla")
			s := n.Snapshot()
			assert.False(t, s.IsLoading)
			assert.Equal(t, "TSLA", s.Ticker)
			if tc.wantErr {
				assert.Error(t, out.Err)
				assert.NotEmpty(t, s.AnalysisError)
				assert.Nil(t, s.Analysis)
			} else {
				assert.NoError(t, out.Err)
				assert.NotNil(t, s.Analysis)
			}
		})
	}
}

func TestHandleAnalyzeWithFallbackRendersMock(t *testing.T) {
	a := NewAnalyzer(&fakeRemote{err: errors.New("dial tcp: connection refused")}, newFallback())
	n := NewNavigator(WithRunner(a))

	out := n.HandleAnalyze(context.Background(), "tsla")
	require.NoError(t, out.Err)
	assert.Contains(t, out.Notice, "connection refused")

	s := n.Snapshot()
	require.NotNil(t, s.Analysis)
	assert.Equal(t, models.SignalStrongBuy, s.Analysis.Analysis.Verdict.Signal)
	assert.Equal(t, 92.0, s.Analysis.Analysis.Verdict.Confidence)
	assert.Contains(t, s.Analysis.Analysis.AIExplanation, "MOCK DATA")
	assert.True(t, s.Analysis.IsMock())
}

func TestSnapshotIsDetached(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	s := n.Snapshot()
	s.User.Email = "changed@example.com"
	s.History = append(s.History, models.ScreenDetail)

	fresh := n.Snapshot()
	assert.Equal(t, testUser.Email, fresh.User.Email)
	assert.Empty(t, fresh.History)
}

func TestRestoreFiltersLoadingAndUnknown(t *testing.T) {
	n := NewNavigator()
	n.GoHome()
	n.GoHome()

	n.Restore(models.Session{
		CurrentScreen: models.Screen("bogus"),
		History:       []models.Screen{models.ScreenLanding, models.ScreenLoading, models.Screen("x"), models.ScreenInput},
		Ticker:        "TSLA",
	})
	s := n.Snapshot()
	assert.Equal(t, models.ScreenLanding, s.CurrentScreen)
	assert.NotEmpty(t, s.Fault)
	assert.Equal(t, []models.Screen{models.ScreenLanding, models.ScreenInput}, s.History)
	assert.Equal(t, uint64(3), s.Generation, "generations keep increasing")
}

func TestRestoreDropsAnalysisStartedBefore(t *testing.T) {
	n := NewNavigator(WithUser(testUser))
	require.NoError(t, n.FinishInput("AAPL"))
	ticket := n.OnLoadingComplete()

	snap := n.Snapshot()
	require.Equal(t, ticket.Generation, snap.Generation)
	snap.Ticker = "TSLA"
	n.Restore(snap)

	s := n.Snapshot()
	assert.Greater(t, s.Generation, ticket.Generation)
	assert.False(t, n.CompleteAnalysis(ticket, Outcome{Result: &models.AnalysisResult{Ticker: "AAPL"}}))
	assert.Nil(t, n.Snapshot().Analysis)
}

type viewLog struct{ screens []models.Screen }

func (v *viewLog) ScreenViewed(s models.Screen, _ models.Intent, _ string) {
	v.screens = append(v.screens, s)
}

func TestObserverSeesEveryScreen(t *testing.T) {
	log := &viewLog{}
	n := NewNavigator(WithObserver(log))
	n.StartWizard(models.IntentBuy)
	n.CompleteAuth(testUser)
	require.NoError(t, n.FinishInput("TSLA"))
	n.FinishWizard(models.WizardAnswers{})
	n.OnLoadingComplete()
	n.GoHome()

	assert.Equal(t, []models.Screen{
		models.ScreenSignUp,
		models.ScreenInput,
		models.ScreenWizard,
		models.ScreenLoading,
		models.ScreenDetail,
		models.ScreenLanding,
	}, log.screens)
}
