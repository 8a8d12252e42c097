package models

// PriceStrategy is the wizard's entry price choice.
type PriceStrategy string

const (
	PriceSpecific PriceStrategy = "specific"
	PriceDip      PriceStrategy = "dip"
	PriceMarket   PriceStrategy = "market"
)

// WizardAnswers holds the answers of the asset wizard.
type WizardAnswers struct {
	Ownership     bool          `json:"ownership"`
	PriceStrategy PriceStrategy `json:"price_strategy,omitempty"`
	TargetPrice   float64       `json:"target_price,omitempty"`
	Units         float64       `json:"units,omitempty"`
	BuyPrice      float64       `json:"buy_price,omitempty"`
	StrategyLabel string        `json:"strategy_label,omitempty"`
}

// Session is the whole client state. It is mutated only through the
// navigator and is safe to serialize.
type Session struct {
	CurrentScreen Screen        `json:"current_screen"`
	History       []Screen      `json:"history"`
	User          *User         `json:"user,omitempty"`
	Intent        Intent        `json:"intent,omitempty"`
	Ticker        string        `json:"ticker,omitempty"`
	Wizard        WizardAnswers `json:"wizard"`

	Analysis      *AnalysisResult `json:"analysis,omitempty"`
	AnalysisError string          `json:"analysis_error,omitempty"`
	IsLoading     bool            `json:"is_loading"`
	Generation    uint64          `json:"generation"`

	// Fault is set when a transition targeted an unknown screen.
	Fault string `json:"fault,omitempty"`
}

// NewSession returns a session on the landing screen.
func NewSession() Session {
	return Session{CurrentScreen: ScreenLanding, History: []Screen{}}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.History = append([]Screen{}, s.History...)
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Analysis != nil {
		out.Analysis = s.Analysis.Clone()
	}
	return out
}
