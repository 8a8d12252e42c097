package models

// Screen names one of the client views.
type Screen string

const (
	ScreenLanding Screen = "landing"
	ScreenInput   Screen = "input"
	ScreenWizard  Screen = "wizard"
	ScreenLoading Screen = "loading"
	ScreenDetail  Screen = "detail"
	ScreenSignUp  Screen = "signup"
)

// Screens lists every valid screen in flow order.
var Screens = []Screen{ScreenLanding, ScreenSignUp, ScreenInput, ScreenWizard, ScreenLoading, ScreenDetail}

// Valid reports whether s is one of the six known screens.
func (s Screen) Valid() bool {
	switch s {
	case ScreenLanding, ScreenInput, ScreenWizard, ScreenLoading, ScreenDetail, ScreenSignUp:
		return true
	}
	return false
}

func (s Screen) String() string { return string(s) }

// Intent is what the user came to do from the landing page.
type Intent string

const (
	IntentNone  Intent = ""
	IntentBuy   Intent = "buy"
	IntentSell  Intent = "sell"
	IntentTrack Intent = "track"
	IntentLogin Intent = "login"
)

// Intents lists the selectable intents in menu order.
var Intents = []Intent{IntentBuy, IntentSell, IntentTrack, IntentLogin}

func (i Intent) Valid() bool {
	switch i {
	case IntentBuy, IntentSell, IntentTrack, IntentLogin:
		return true
	}
	return false
}
