package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"TrackBets/internal/domain/models"
)

type wizardStep int

const (
	stepOwnership wizardStep = iota
	stepStrategy
	stepTarget
	stepPosition
	stepLabel
)

type choice struct {
	title    string
	subtitle string
}

var ownershipChoices = []choice{
	{"Yes, I own it", "Get advice on holding, adding or exiting"},
	{"No, not yet", "Find out whether and where to get in"},
}

var priceChoices = []struct {
	strategy models.PriceStrategy
	choice
}{
	{models.PriceSpecific, choice{"I have a target price", "Enter your specific entry point"}},
	{models.PriceMarket, choice{"Find optimal entry", "Best entry based on technicals"}},
	{models.PriceDip, choice{"Wait for a dip", "Alert me when price drops 5-15%"}},
}

var strategyLabels = []string{"Long Term", "Swing Trade", "Quick Scalp", "Hedge"}

// wizard walks ownership, then either the position (owners) or the price
// strategy with an optional target, and ends on the strategy label.
type wizard struct {
	step    wizardStep
	trail   []wizardStep
	cursor  int
	answers models.WizardAnswers

	price textinput.Model
	units textinput.Model
	focus int
	err   string
}

func newWizard() wizard {
	return wizard{
		price: numberInput("e.g. 150.00"),
		units: numberInput("e.g. 10"),
	}
}

func numberInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 16
	in.Prompt = "› "
	return in
}

// options returns the menu size of the current step, or 0 for input steps.
func (w *wizard) options() int {
	switch w.step {
	case stepOwnership:
		return len(ownershipChoices)
	case stepStrategy:
		return len(priceChoices)
	case stepLabel:
		return len(strategyLabels)
	}
	return 0
}

func (w *wizard) goTo(step wizardStep) tea.Cmd {
	w.trail = append(w.trail, w.step)
	return w.show(step)
}

func (w *wizard) back() tea.Cmd {
	if len(w.trail) == 0 {
		return nil
	}
	prev := w.trail[len(w.trail)-1]
	w.trail = w.trail[:len(w.trail)-1]
	return w.show(prev)
}

func (w *wizard) show(step wizardStep) tea.Cmd {
	w.step = step
	w.cursor = 0
	w.err = ""
	w.price.Blur()
	w.units.Blur()
	switch step {
	case stepTarget:
		w.price.SetValue("")
		w.price.Placeholder = "e.g. 165.00"
		return w.price.Focus()
	case stepPosition:
		w.price.SetValue("")
		w.units.SetValue("")
		w.price.Placeholder = "e.g. 150.00"
		w.focus = 0
		return w.price.Focus()
	}
	return nil
}

// update handles one key and reports whether the wizard is complete.
func (w *wizard) update(msg tea.KeyMsg, keys keyMap) (bool, tea.Cmd) {
	if key.Matches(msg, keys.Prev) {
		return false, w.back()
	}

	if n := w.options(); n > 0 {
		switch {
		case key.Matches(msg, keys.Up):
			if w.cursor > 0 {
				w.cursor--
			}
		case key.Matches(msg, keys.Down):
			if w.cursor < n-1 {
				w.cursor++
			}
		case key.Matches(msg, keys.Select):
			return w.choose()
		}
		return false, nil
	}

	switch w.step {
	case stepTarget:
		if key.Matches(msg, keys.Select) {
			v, ok := parsePositive(w.price.Value())
			if !ok {
				w.err = "Enter a price above zero."
				return false, nil
			}
			w.answers.TargetPrice = v
			return false, w.goTo(stepLabel)
		}
	case stepPosition:
		switch {
		case msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
			return false, w.toggleFocus()
		case key.Matches(msg, keys.Select):
			return w.submitPosition()
		}
	}
	return false, w.updateInputs(msg)
}

func (w *wizard) choose() (bool, tea.Cmd) {
	switch w.step {
	case stepOwnership:
		owned := w.cursor == 0
		w.answers = models.WizardAnswers{Ownership: owned}
		if owned {
			return false, w.goTo(stepPosition)
		}
		return false, w.goTo(stepStrategy)
	case stepStrategy:
		w.answers.PriceStrategy = priceChoices[w.cursor].strategy
		w.answers.TargetPrice = 0
		if w.answers.PriceStrategy == models.PriceSpecific {
			return false, w.goTo(stepTarget)
		}
		return false, w.goTo(stepLabel)
	case stepLabel:
		w.answers.StrategyLabel = strategyLabels[w.cursor]
		return true, nil
	}
	return false, nil
}

func (w *wizard) toggleFocus() tea.Cmd {
	if w.focus == 0 {
		w.focus = 1
		w.price.Blur()
		return w.units.Focus()
	}
	w.focus = 0
	w.units.Blur()
	return w.price.Focus()
}

func (w *wizard) submitPosition() (bool, tea.Cmd) {
	price, ok := parsePositive(w.price.Value())
	if !ok {
		w.err = "Enter your average buy price."
		if w.focus != 0 {
			return false, w.toggleFocus()
		}
		return false, nil
	}
	if w.focus == 0 {
		w.err = ""
		return false, w.toggleFocus()
	}
	units, ok := parsePositive(w.units.Value())
	if !ok {
		w.err = "Enter how many units you own."
		return false, nil
	}
	w.answers.BuyPrice = price
	w.answers.Units = units
	return false, w.goTo(stepLabel)
}

// updateInputs forwards msg to the focused number input, if any.
func (w *wizard) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case w.step == stepTarget, w.step == stepPosition && w.focus == 0:
		w.price, cmd = w.price.Update(msg)
	case w.step == stepPosition:
		w.units, cmd = w.units.Update(msg)
	}
	return cmd
}

// parsePositive accepts "150", "150.5" or "$150.50".
func parsePositive(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
