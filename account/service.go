package account

import (
	"context"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tastemate/tastemate-go/credentials"
	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/identity"
	interrors "github.com/tastemate/tastemate-go/internal/errors"
	"github.com/tastemate/tastemate-go/lifecycle"
	"github.com/tastemate/tastemate-go/session"
)

// Provider is the identity-provider surface the account slice uses.
// Implemented by *identity.Client.
type Provider interface {
	SignUp(ctx context.Context, email, password string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (*identity.TokenPair, error)
	DeleteUser(ctx context.Context, identityToken string) error
}

// Service owns the account feature area. Provider failures are
// classified once and recorded as field or form errors; only
// unclassifiable failures come back as Go errors.
type Service struct {
	provider Provider
	creds    credentials.Store
	state    *lifecycle.Container[State]
	session  *session.Flag
	log      zerolog.Logger
}

// Option modifies a Service.
type Option func(*Service)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(provider Provider, creds credentials.Store, sessionFlag *session.Flag, options ...Option) (*Service, error) {
	if provider == nil {
		return nil, errors.New("[account.NewService] identity provider is required")
	}
	if creds == nil {
		return nil, errors.New("[account.NewService] credential store is required")
	}
	if sessionFlag == nil {
		return nil, errors.New("[account.NewService] session flag is required")
	}

	service := &Service{
		provider: provider,
		creds:    creds,
		state:    lifecycle.NewContainer(NewState()),
		session:  sessionFlag,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

func (s *Service) State() State {
	return s.state.View()
}

// SignUp registers a new account. Validation failures land on the
// offending field (password policy, duplicate email) or on the form.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	s.pending(SignUpKey)
	if err := s.provider.SignUp(ctx, email, password); err != nil {
		return s.reject(SignUpKey, err)
	}
	s.fulfil(SignUpKey)
	return nil
}

// ConfirmSignUp completes registration with the emailed code.
func (s *Service) ConfirmSignUp(ctx context.Context, email, code string) error {
	s.pending(ConfirmSignUpKey)
	if err := s.provider.ConfirmSignUp(ctx, email, code); err != nil {
		return s.reject(ConfirmSignUpKey, err)
	}
	s.fulfil(ConfirmSignUpKey)
	return nil
}

// SignIn exchanges credentials for the token pair, persists both, and
// marks the session active.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	s.pending(SignInKey)

	pair, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return s.reject(SignInKey, err)
	}

	if err := s.creds.Set(ctx, credentials.IdentityToken, pair.IdentityToken); err != nil {
		return errors.Wrap(err, "[account.SignIn] persist identity token")
	}
	if err := s.creds.Set(ctx, credentials.RefreshToken, pair.RefreshToken); err != nil {
		return errors.Wrap(err, "[account.SignIn] persist refresh token")
	}

	s.fulfil(SignInKey)
	s.session.SetActive()
	return nil
}

// SignOut deletes the stored credential pair and resets the account
// state. Callers reset the other feature areas alongside.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.creds.Delete(ctx, credentials.IdentityToken); err != nil {
		return errors.Wrap(err, "[account.SignOut] delete identity token")
	}
	if err := s.creds.Delete(ctx, credentials.RefreshToken); err != nil {
		return errors.Wrap(err, "[account.SignOut] delete refresh token")
	}
	s.session.Reset()
	s.Reset()
	return nil
}

// DeleteUser removes the account at the provider, then signs out.
func (s *Service) DeleteUser(ctx context.Context) error {
	// Resolve the token before marking the key pending, so a missing or
	// unreadable credential leaves the key at idle rather than loading.
	token, err := s.creds.Get(ctx, credentials.IdentityToken)
	if err != nil {
		return errors.Wrap(err, "[account.DeleteUser] read identity token")
	}
	if token == "" {
		return interrors.ErrNoIdentityToken
	}

	s.pending(DeleteUserKey)
	if err := s.provider.DeleteUser(ctx, token); err != nil {
		return s.reject(DeleteUserKey, err)
	}
	s.fulfil(DeleteUserKey)
	return s.SignOut(ctx)
}

// CurrentUser decodes the stored identity token's claims for display.
// The token is not verified here; the provider minted it and the API
// validates it on every call.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	token, err := s.creds.Get(ctx, credentials.IdentityToken)
	if err != nil {
		return nil, errors.Wrap(err, "[account.CurrentUser] read identity token")
	}
	if token == "" {
		return nil, interrors.ErrNoIdentityToken
	}

	claims := jwtlib.MapClaims{}
	parser := jwtlib.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "[account.CurrentUser] parse identity token")
	}

	user := &User{}
	if sub, err := claims.GetSubject(); err == nil {
		user.ID = sub
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	return user, nil
}

// ClearFieldError drops the messages for one input, for the UI rule
// that editing a field dismisses its errors.
func (s *Service) ClearFieldError(field string) {
	s.state.Update(func(st State) State {
		errs := st.Errors.Clone()
		errs.ClearField(field)
		st.Errors = errs
		return st
	})
}

// ClearFormErrors dismisses the page-level error list.
func (s *Service) ClearFormErrors() {
	s.state.Update(func(st State) State {
		errs := st.Errors.Clone()
		errs.ClearForm()
		st.Errors = errs
		return st
	})
}

// Reset restores the feature area to its initial state.
func (s *Service) Reset() {
	s.state.Update(func(State) State {
		return NewState()
	})
}

// AcknowledgeExpiry clears expiredAuth statuses across all keys.
func (s *Service) AcknowledgeExpiry() {
	s.state.Update(func(st State) State {
		st.Meta = lifecycle.AcknowledgeExpiry(st.Meta)
		return st
	})
}

func (s *Service) pending(key string) {
	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Pending(st.Meta, key)
		return st
	})
}

func (s *Service) fulfil(key string) {
	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Fulfilled(st.Meta, key)
		return st
	})
}

func (s *Service) reject(key string, err error) error {
	fault := faults.Classify(err)

	var raise error
	s.state.Update(func(st State) State {
		meta, rerr := lifecycle.Rejected(st.Meta, key, fault)
		raise = rerr
		st.Meta = meta
		errs := st.Errors.Clone()
		errs.Add(fault)
		st.Errors = errs
		return st
	})
	if raise != nil {
		return errors.Wrap(err, "[account.reject] unclassifiable failure")
	}
	s.log.Debug().Str("key", key).Err(err).Msg("account operation rejected")
	if fault.Kind == faults.KindAuthExpired {
		s.session.Expire()
	}
	return nil
}
