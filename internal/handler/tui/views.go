package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/util"
)

var intentLabels = map[models.Intent]choice{
	models.IntentBuy:   {"Buy", "Get an instant verdict before you get in"},
	models.IntentSell:  {"Sell", "Check whether it is time to take profits"},
	models.IntentTrack: {"Track", "Follow a position and its live price"},
	models.IntentLogin: {"Log in", "Pick up where you left off"},
}

func headerView(st Styles, s models.Session) string {
	h := st.Header.Render("TrackBets")
	if s.User != nil {
		h += st.Muted.Render("  ·  signed in as " + s.User.DisplayName())
	}
	return h
}

func landingView(st Styles, keys keyMap, s models.Session, cursor int) string {
	var b strings.Builder
	b.WriteString(st.Title.Render("Should you buy, sell or hold?"))
	b.WriteString("\n")
	b.WriteString(st.Subtitle.Render("AI verdicts on any stock, in seconds."))
	b.WriteString("\n\n")

	for i, intent := range models.Intents {
		c := intentLabels[intent]
		b.WriteString(menuItem(st, i == cursor, c.title, c.subtitle))
	}

	bindings := []key.Binding{keys.Up, keys.Down, keys.Select}
	if s.User != nil {
		bindings = append(bindings, keys.Logout)
	}
	bindings = append(bindings, keys.Quit)
	b.WriteString(st.Footer.Render(help(bindings...)))
	return b.String()
}

func menuItem(st Styles, selected bool, title, subtitle string) string {
	if selected {
		return st.Selected.Render("▸ "+title) + "  " + st.Muted.Render(subtitle) + "\n"
	}
	return st.Unselected.Render("  "+title) + "  " + st.Muted.Render(subtitle) + "\n"
}

func authView(st Styles, keys keyMap, f authForm) string {
	var b strings.Builder
	if f.mode == modeLogin {
		b.WriteString(st.Title.Render("Welcome back"))
	} else {
		b.WriteString(st.Title.Render("Create your account"))
	}
	b.WriteString("\n")

	for _, id := range f.fields() {
		label := st.Label
		if id == f.focus {
			label = st.Selected
		}
		b.WriteString(label.Render(fmt.Sprintf("%-11s", fieldLabels[id])))
		b.WriteString(f.inputs[id].View())
		b.WriteString("\n")
	}

	if f.pending {
		b.WriteString("\n" + st.Muted.Render("Checking..."))
	}
	if f.err != "" {
		b.WriteString("\n" + st.Error.Render(f.err))
	}

	toggle := "tab log in instead"
	if f.mode == modeLogin {
		toggle = "tab sign up instead"
	}
	b.WriteString(st.Footer.Render(toggle + " · " + help(keys.Select, keys.Back)))
	return b.String()
}

func inputView(st Styles, keys keyMap, s models.Session, input, inputErr string, shake int) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(intentTitle(s.Intent)))
	b.WriteString("\n")
	b.WriteString(st.Subtitle.Render("Enter the ticker symbol"))
	b.WriteString("\n\n")

	// The cue nudges the field left and right on alternate frames.
	offset := 0
	if shake%2 == 1 {
		offset = 2
	}
	b.WriteString(strings.Repeat(" ", offset) + input)
	b.WriteString("\n")
	if inputErr != "" {
		b.WriteString(st.Error.Render(inputErr))
		b.WriteString("\n")
	}
	b.WriteString(st.Footer.Render(help(keys.Select, keys.Back, keys.Home)))
	return b.String()
}

func intentTitle(i models.Intent) string {
	switch i {
	case models.IntentSell:
		return "Which asset are you selling?"
	case models.IntentTrack:
		return "Which asset do you want to track?"
	}
	return "Which asset?"
}

func wizardView(st Styles, keys keyMap, s models.Session, w wizard) string {
	var b strings.Builder
	b.WriteString(st.Muted.Render(s.Ticker + "  " + progressDots(w)))
	b.WriteString("\n\n")

	switch w.step {
	case stepOwnership:
		b.WriteString(st.Title.Render("Current status?"))
		b.WriteString("\n")
		for i, c := range ownershipChoices {
			b.WriteString(menuItem(st, i == w.cursor, c.title, c.subtitle))
		}
	case stepStrategy:
		b.WriteString(st.Title.Render("Entry strategy"))
		b.WriteString("\n")
		for i, c := range priceChoices {
			b.WriteString(menuItem(st, i == w.cursor, c.title, c.subtitle))
		}
	case stepTarget:
		b.WriteString(st.Title.Render("Target price"))
		b.WriteString("\n")
		b.WriteString(st.Label.Render("TARGET ENTRY PRICE") + "\n")
		b.WriteString(w.price.View() + "\n")
	case stepPosition:
		b.WriteString(st.Title.Render("Investment details"))
		b.WriteString("\n")
		b.WriteString(st.Label.Render("AVG BUY PRICE") + "\n")
		b.WriteString(w.price.View() + "\n")
		b.WriteString(st.Label.Render("UNITS OWNED") + "\n")
		b.WriteString(w.units.View() + "\n")
	case stepLabel:
		b.WriteString(st.Title.Render("Investment goal?"))
		b.WriteString("\n")
		for i, label := range strategyLabels {
			b.WriteString(menuItem(st, i == w.cursor, label, ""))
		}
	}

	if w.err != "" {
		b.WriteString(st.Error.Render(w.err) + "\n")
	}
	b.WriteString(st.Footer.Render(help(keys.Select, keys.Prev, keys.Back)))
	return b.String()
}

// progressDots marks the steps taken out of the longest path.
func progressDots(w wizard) string {
	const total = 4
	done := len(w.trail) + 1
	if done > total {
		done = total
	}
	return strings.Repeat("●", done) + strings.Repeat("○", total-done)
}

func loadingView(st Styles, s models.Session, l loading, width int) string {
	var b strings.Builder
	b.WriteString(l.spinner.View() + " " + st.Bold.Render("Analyzing "+s.Ticker))
	b.WriteString("\n\n")

	bar := l.bar
	bar.Width = clamp(width-8, 20, 60)
	b.WriteString(bar.ViewAs(l.percent()))
	b.WriteString("\n\n")

	cur := l.step()
	for i, step := range loadingSteps {
		text := step
		if i == 0 {
			text = fmt.Sprintf(step, orDefault(s.Ticker, "asset"))
		}
		switch {
		case i < cur:
			b.WriteString(st.Up.Render("✓ ") + st.Muted.Render(text))
		case i == cur:
			b.WriteString(st.Selected.Render("› " + text))
		default:
			b.WriteString(st.Muted.Render("  " + text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func detailView(st Styles, keys keyMap, s models.Session, notice string, live *usecase.PriceView, width int) string {
	var b strings.Builder
	switch {
	case s.IsLoading:
		b.WriteString(st.Muted.Render(fmt.Sprintf("Analyzing %s...", s.Ticker)))
		b.WriteString("\n")
	case s.AnalysisError != "":
		b.WriteString(st.Error.Render("Analysis failed: " + s.AnalysisError))
		b.WriteString("\n")
	case s.Analysis != nil:
		b.WriteString(resultView(st, s.Analysis, notice, width))
	}

	if live != nil && live.Points > 0 {
		b.WriteString("\n")
		b.WriteString(liveView(st, *live, currencyOf(s.Analysis, s.Ticker)))
	}

	bindings := []key.Binding{keys.Retry, keys.Back, keys.Home, keys.Quit}
	if s.IsLoading {
		bindings = bindings[1:]
	}
	b.WriteString(st.Footer.Render(help(bindings...)))
	return b.String()
}

func resultView(st Styles, r *models.AnalysisResult, notice string, width int) string {
	var b strings.Builder
	textWidth := clamp(width-6, 30, 100)
	cur := currencyOf(r, r.Ticker)

	if r.IsMock() {
		b.WriteString(st.Banner.Render("MOCK DATA"))
		if notice != "" {
			b.WriteString(" " + st.Muted.Render("live analysis unavailable: "+util.Truncate(notice, 60)))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(st.Bold.Render(r.Ticker))
	if r.PriceData.Name != "" {
		b.WriteString("  " + st.Muted.Render(r.PriceData.Name))
	}
	b.WriteString("\n")

	pd := r.PriceData
	arrow := "▲"
	if pd.ChangePercent < 0 {
		arrow = "▼"
	}
	b.WriteString(st.Bold.Render(formatMoney(cur, pd.Price)) + "  ")
	b.WriteString(st.Change(pd.ChangePercent, fmt.Sprintf("%s %.2f%%", arrow, math.Abs(pd.ChangePercent))))
	b.WriteString("\n\n")

	a := r.Analysis
	b.WriteString(st.VerdictStyle(a.Verdict.Signal).Render(a.Verdict.Signal))
	b.WriteString("  " + st.Label.Render("CONFIDENCE ") + st.Bold.Render(fmt.Sprintf("%.0f%%", a.Verdict.Confidence)))
	b.WriteString("\n")

	var facts []string
	if a.Action != "" {
		facts = append(facts, "Action "+a.Action)
	}
	if a.TargetPrice != nil {
		facts = append(facts, "Target "+formatMoney(cur, *a.TargetPrice))
	}
	if a.Timeframe != "" {
		facts = append(facts, "Timeframe "+a.Timeframe)
	}
	if a.RiskLevel != "" {
		facts = append(facts, "Risk "+a.RiskLevel)
	}
	if len(facts) > 0 {
		b.WriteString(st.Muted.Render(strings.Join(facts, " · ")))
		b.WriteString("\n")
	}

	if len(a.Reasons) > 0 {
		b.WriteString("\n" + st.Label.Render("WHY") + "\n")
		for _, reason := range a.Reasons {
			b.WriteString("• " + reason + "\n")
		}
	}

	if a.AIExplanation != "" {
		b.WriteString("\n" + st.Label.Render("AI EXPLANATION") + "\n")
		b.WriteString(lipgloss.NewStyle().Width(textWidth).Render(a.AIExplanation))
		b.WriteString("\n")
	}

	if fc := a.Flashcard; fc != nil && len(fc.KeyDataPoints) > 0 {
		b.WriteString("\n" + st.Label.Render(strings.ToUpper(orDefault(fc.Title, "KEY DATA"))) + "\n")
		for _, p := range fc.KeyDataPoints {
			b.WriteString("· " + p + "\n")
		}
	}

	if lines := r.SocialLines(3); len(lines) > 0 {
		b.WriteString("\n" + st.Label.Render("SOCIAL PULSE") + "\n")
		for _, line := range lines {
			b.WriteString(st.Info.Render("“"+util.Truncate(line, textWidth)+"”") + "\n")
		}
	}
	return b.String()
}

func liveView(st Styles, v usecase.PriceView, cur string) string {
	var b strings.Builder
	b.WriteString(st.Label.Render("LIVE") + "  ")
	b.WriteString(st.Bold.Render(formatMoney(cur, v.Last)) + "  ")
	b.WriteString(st.Change(v.Change, fmt.Sprintf("%+.2f%%", v.Change)))
	if v.Points > 2 {
		b.WriteString(st.Muted.Render(fmt.Sprintf("  vol %.1f%%", v.Volatility*100)))
	}
	b.WriteString("\n")
	b.WriteString(st.Selected.Render(v.Sparkline))
	b.WriteString("\n")
	return b.String()
}

func errorView(st Styles, keys keyMap, s models.Session) string {
	var b strings.Builder
	b.WriteString(st.Error.Render("Something went wrong"))
	b.WriteString("\n\n")
	reason := s.Fault
	if reason == "" {
		reason = fmt.Sprintf("unknown screen %q", string(s.CurrentScreen))
	}
	b.WriteString(st.Muted.Render(reason))
	b.WriteString("\n")
	b.WriteString(st.Footer.Render(help(keys.GoHome, keys.Quit)))
	return b.String()
}

func currencyOf(r *models.AnalysisResult, ticker string) string {
	if r != nil && r.PriceData.Currency != "" {
		return r.PriceData.Currency
	}
	return analysis.CurrencyFor(ticker)
}

func formatMoney(cur string, v float64) string {
	return fmt.Sprintf("%s%.2f", cur, v)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
