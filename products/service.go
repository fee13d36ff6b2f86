package products

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/lifecycle"
	"github.com/tastemate/tastemate-go/rest"
	"github.com/tastemate/tastemate-go/session"
)

const basePath = "/products"

// Service owns the products feature area. The error contract matches
// the other slices: recoverable failures land in State, only
// unclassifiable ones are returned.
type Service struct {
	api     rest.Doer
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

func NewService(api rest.Doer, sessionFlag *session.Flag, options ...Option) (*Service, error) {
	if api == nil {
		return nil, errors.New("[products.NewService] api client is required")
	}
	if sessionFlag == nil {
		return nil, errors.New("[products.NewService] session flag is required")
	}

	service := &Service{
		api:     api,
		state:   lifecycle.NewContainer(NewState()),
		session: sessionFlag,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

func (s *Service) State() State {
	return s.state.View()
}

// List fetches the next plain product page.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.list(ctx, ListKey, nil)
}

// ListRated fetches the next rating-augmented page.
func (s *Service) ListRated(ctx context.Context) ([]Product, error) {
	return s.list(ctx, RatedListKey, url.Values{"include": {"rating"}})
}

func (s *Service) list(ctx context.Context, key string, query url.Values) ([]Product, error) {
	meta := s.state.View().Meta.Get(key)
	if meta.Next.Exhausted() {
		return nil, nil
	}

	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Pending(st.Meta, key)
		return st
	})

	req := rest.Request{Method: http.MethodGet, Path: basePath, Query: query}
	if meta.Next.Known {
		req = rest.Request{Method: http.MethodGet, URL: meta.Next.URL}
	}

	var pg page
	if err := s.api.Do(ctx, req, &pg); err != nil {
		return nil, s.reject(key, err)
	}

	s.state.Update(func(st State) State {
		st.Items = mergePage(st.Items, pg.Items)
		st.Meta = lifecycle.FulfilledPage(st.Meta, key, lifecycle.NextCursor(pg.Next))
		return st
	})
	s.session.SetActive()
	return pg.Items, nil
}

// Get returns one product, resolving from the cache when present.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	cached := find(s.state.View().Items, id)
	return s.get(ctx, id, cached, nil)
}

// GetRated returns one rating-augmented product. A cached product only
// short-circuits when its rating is already loaded.
func (s *Service) GetRated(ctx context.Context, id string) (*Product, error) {
	cached := find(s.state.View().Items, id)
	if cached != nil && cached.Rating == nil {
		cached = nil
	}
	return s.get(ctx, id, cached, url.Values{"include": {"rating"}})
}

func (s *Service) get(ctx context.Context, id string, cached *Product, query url.Values) (*Product, error) {
	if cached != nil {
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

	var product Product
	req := rest.Request{Method: http.MethodGet, Path: basePath + "/" + id, Query: query}
	if err := s.api.Do(ctx, req, &product); err != nil {
		return nil, s.reject(id, err)
	}

	s.state.Update(func(st State) State {
		st.Items = upsert(st.Items, product)
		st.Meta = lifecycle.Fulfilled(st.Meta, id)
		return st
	})
	s.session.SetActive()
	return &product, nil
}

// ApplyRating patches the cached copy of a product after a rating
// mutation so augmented reads stay consistent without a refetch. A nil
// rating clears the augmentation (archive).
func (s *Service) ApplyRating(productID string, rating *Rating) {
	s.state.Update(func(st State) State {
		out := append([]Product(nil), st.Items...)
		for i := range out {
			if out[i].ID == productID {
				out[i].Rating = rating
			}
		}
		st.Items = out
		return st
	})
}

// Reset restores the feature area to its initial state (sign-out).
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
		return errors.Wrap(err, "[products.reject] unclassifiable failure")
	}
	s.log.Debug().Str("key", key).Err(err).Msg("product operation rejected")
	if fault.Kind == faults.KindAuthExpired {
		s.session.Expire()
	}
	return nil
}
