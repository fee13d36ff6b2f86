package communities

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tastemate/tastemate-go/credentials"
	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/lifecycle"
	"github.com/tastemate/tastemate-go/rest"
	"github.com/tastemate/tastemate-go/session"
)

const basePath = "/communities"

// Service owns the communities feature area. Recoverable failures
// (auth expiry, field/form errors) are absorbed into State and the
// operation returns a nil error; only unclassifiable failures are
// returned as Go errors.
type Service struct {
	api     rest.Doer
	creds   credentials.Store
	state   *lifecycle.Container[State]
	session *session.Flag
	log     zerolog.Logger
}

// Option modifies a Service.
type Option func(*Service)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(api rest.Doer, creds credentials.Store, sessionFlag *session.Flag, options ...Option) (*Service, error) {
	if api == nil {
		return nil, errors.New("[communities.NewService] api client is required")
	}
	if creds == nil {
		return nil, errors.New("[communities.NewService] credential store is required")
	}
	if sessionFlag == nil {
		return nil, errors.New("[communities.NewService] session flag is required")
	}

	service := &Service{
		api:     api,
		creds:   creds,
		state:   lifecycle.NewContainer(NewState()),
		session: sessionFlag,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// State returns a snapshot of the feature area.
func (s *Service) State() State {
	return s.state.View()
}

// List fetches the next page of communities. The first call uses the
// default URL; later calls follow the server's next link verbatim. Once
// the cursor is exhausted the call resolves with an empty page without
// touching the network or the state.
func (s *Service) List(ctx context.Context) ([]Community, error) {
	meta := s.state.View().Meta.Get(ListKey)
	if meta.Next.Exhausted() {
		return nil, nil
	}

	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Pending(st.Meta, ListKey)
		return st
	})

	req := rest.Request{Method: http.MethodGet, Path: basePath}
	if meta.Next.Known {
		req = rest.Request{Method: http.MethodGet, URL: meta.Next.URL}
	}

	var pg page
	if err := s.api.Do(ctx, req, &pg); err != nil {
		return nil, s.reject(ListKey, err)
	}

	s.state.Update(func(st State) State {
		st.Items = mergePage(st.Items, pg.Items)
		st.Meta = lifecycle.FulfilledPage(st.Meta, ListKey, lifecycle.NextCursor(pg.Next))
		return st
	})
	s.session.SetActive()
	return pg.Items, nil
}

// Get returns one community. A community already in the collection is
// returned immediately with no network call; the metadata still lands
// on succeeded so consumers see a uniform terminal state.
func (s *Service) Get(ctx context.Context, id string) (*Community, error) {
	if cached := find(s.state.View().Items, id); cached != nil {
		s.state.Update(func(st State) State {
			st.Meta = lifecycle.Fulfilled(st.Meta, id)
			return st
		})
		return cached, nil
	}

	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Pending(st.Meta, id)
		return st
	})

	var community Community
	if err := s.api.Do(ctx, rest.Request{Method: http.MethodGet, Path: basePath + "/" + id}, &community); err != nil {
		return nil, s.reject(id, err)
	}

	s.state.Update(func(st State) State {
		st.Items = upsert(st.Items, community)
		st.Meta = lifecycle.Fulfilled(st.Meta, id)
		return st
	})
	s.session.SetActive()
	return &community, nil
}

// Join adds the current user to a community and remembers it as the
// most recent one for the onboarding flow.
func (s *Service) Join(ctx context.Context, id string) error {
	return s.membership(ctx, id, "join", true)
}

// Leave removes the current user from a community.
func (s *Service) Leave(ctx context.Context, id string) error {
	return s.membership(ctx, id, "leave", false)
}

func (s *Service) membership(ctx context.Context, id, action string, joined bool) error {
	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Pending(st.Meta, id)
		return st
	})

	var community Community
	req := rest.Request{Method: http.MethodPost, Path: basePath + "/" + id + "/" + action}
	if err := s.api.Do(ctx, req, &community); err != nil {
		return s.reject(id, err)
	}
	if community.ID == "" {
		// Some deployments return 204 for membership changes; patch the
		// cached entry instead.
		community = func() Community {
			if cached := find(s.state.View().Items, id); cached != nil {
				cached.Joined = joined
				return *cached
			}
			return Community{ID: id, Joined: joined}
		}()
	}

	s.state.Update(func(st State) State {
		st.Items = upsert(st.Items, community)
		st.Meta = lifecycle.Fulfilled(st.Meta, id)
		return st
	})
	s.session.SetActive()

	if joined {
		if err := s.creds.Set(ctx, credentials.MostRecentCommunityID, id); err != nil {
			s.log.Warn().Err(err).Str("community", id).Msg("failed to persist most recent community")
		}
	}
	return nil
}

// Reset restores the feature area to its initial state (sign-out).
func (s *Service) Reset() {
	s.state.Update(func(State) State {
		return NewState()
	})
}

// AcknowledgeExpiry clears expiredAuth statuses so a retry after
// re-authentication starts from idle, without dropping cached data.
func (s *Service) AcknowledgeExpiry() {
	s.state.Update(func(st State) State {
		st.Meta = lifecycle.AcknowledgeExpiry(st.Meta)
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
		return st
	})
	if raise != nil {
		return errors.Wrap(err, "[communities.reject] unclassifiable failure")
	}
	if fault.Kind == faults.KindAuthExpired {
		s.session.Expire()
	}
	return nil
}
