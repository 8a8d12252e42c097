package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"TrackBets/internal/domain/models"
)

type authMode int

const (
	modeSignUp authMode = iota
	modeLogin
)

const (
	fieldFirst = iota
	fieldLast
	fieldEmail
	fieldPassword
)

var fieldLabels = []string{"First name", "Last name", "Email", "Password"}

// authForm is the signup/login form. Both modes share the inputs; login only
// shows email and password.
type authForm struct {
	mode    authMode
	inputs  []textinput.Model
	focus   int
	err     string
	pending bool
}

func newAuthForm(login bool) authForm {
	f := authForm{inputs: make([]textinput.Model, len(fieldLabels))}
	for i, label := range fieldLabels {
		in := textinput.New()
		in.Placeholder = label
		in.CharLimit = 64
		in.Prompt = ""
		f.inputs[i] = in
	}
	f.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	f.inputs[fieldPassword].EchoCharacter = '•'
	if login {
		f.mode = modeLogin
	}
	f.focus = f.fields()[0]
	return f
}

func (f *authForm) fields() []int {
	if f.mode == modeLogin {
		return []int{fieldEmail, fieldPassword}
	}
	return []int{fieldFirst, fieldLast, fieldEmail, fieldPassword}
}

func (f *authForm) focusOn(i int) tea.Cmd {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.focus = i
	return f.inputs[i].Focus()
}

func (f *authForm) toggle() tea.Cmd {
	if f.mode == modeLogin {
		f.mode = modeSignUp
	} else {
		f.mode = modeLogin
	}
	f.err = ""
	return f.focusOn(f.fields()[0])
}

func (f *authForm) move(delta int) tea.Cmd {
	fs := f.fields()
	pos := 0
	for i, id := range fs {
		if id == f.focus {
			pos = i
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(fs) {
		pos = len(fs) - 1
	}
	return f.focusOn(fs[pos])
}

func (f *authForm) last() bool {
	fs := f.fields()
	return f.focus == fs[len(fs)-1]
}

func (f *authForm) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *authForm) value(i int) string {
	return f.inputs[i].Value()
}

func (f *authForm) signUpForm() models.SignUpForm {
	return models.SignUpForm{
		FirstName: f.value(fieldFirst),
		LastName:  f.value(fieldLast),
		Email:     f.value(fieldEmail),
		Password:  f.value(fieldPassword),
	}
}
