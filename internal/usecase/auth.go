package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
	xhttp "TrackBets/pkg/http"
	"TrackBets/pkg/logger"
)

var (
	ErrNoAccount          = errors.New("No account found. Please sign up first.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
)

// FormError lists the fields of a form that failed validation.
type FormError struct {
	Fields []xhttp.FieldError
}

func (e *FormError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Auth manages the single locally stored account.
type Auth struct {
	store   drepo.UserStore
	tracker *FunnelTracker
	log     *logger.Logger
}

func NewAuth(store drepo.UserStore, tracker *FunnelTracker, l *logger.Logger) *Auth {
	if l == nil {
		l = logger.Nop()
	}
	return &Auth{store: store, tracker: tracker, log: l}
}

// SignUp validates the form and stores it as the account, replacing any
// previous one.
func (a *Auth) SignUp(ctx context.Context, form models.SignUpForm) (*models.User, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)

	if errs := xhttp.ValidateStruct(ctx, &form); len(errs) > 0 {
		a.tracker.AuthEvent(models.FunnelAuthFailed, "signup: invalid form")
		return nil, &FormError{Fields: errs}
	}

	u := &models.User{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	}
	if err := a.store.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	a.tracker.AuthEvent(models.FunnelAuthSignUp, "")
	a.log.Info("user signed up", logger.String("email", u.Email))
	return u, nil
}

// Login checks the credentials against the stored account.
func (a *Auth) Login(ctx context.Context, email, password string) (*models.User, error) {
	form := models.LoginForm{Email: strings.TrimSpace(email), Password: password}
	if errs := xhttp.ValidateStruct(ctx, &form); len(errs) > 0 {
		a.tracker.AuthEvent(models.FunnelAuthFailed, "login: invalid form")
		return nil, &FormError{Fields: errs}
	}

	u, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		a.tracker.AuthEvent(models.FunnelAuthFailed, "no account")
		return nil, ErrNoAccount
	}
	if !strings.EqualFold(u.Email, form.Email) || u.Password != form.Password {
		a.tracker.AuthEvent(models.FunnelAuthFailed, "bad credentials")
		return nil, ErrInvalidCredentials
	}
	a.tracker.AuthEvent(models.FunnelAuthLogin, "")
	return u, nil
}

// Current returns the stored account, or nil.
func (a *Auth) Current(ctx context.Context) (*models.User, error) {
	return a.store.Load(ctx)
}

// Logout removes the stored account.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}
