package ratings

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/lifecycle"
	"github.com/tastemate/tastemate-go/rest"
	"github.com/tastemate/tastemate-go/session"
)

const basePath = "/ratings"

// Service owns the ratings feature area. Same error contract as the
// other slices: recoverable failures are absorbed into State.
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
		return nil, errors.New("[ratings.NewService] api client is required")
	}
	if sessionFlag == nil {
		return nil, errors.New("[ratings.NewService] session flag is required")
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

// RatingFor returns the cached rating for a product, if any.
func (s *Service) RatingFor(productID string) *Rating {
	return findByProduct(s.state.View().Items, productID)
}

type createRequest struct {
	ProductID string `json:"productId"`
	Score     int    `json:"score"`
	Comment   string `json:"comment"`
}

type updateRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Create submits a new rating for a product.
func (s *Service) Create(ctx context.Context, productID string, score int, comment string) (*Rating, error) {
	req := rest.Request{
		Method: http.MethodPost,
		Path:   basePath,
		Body:   createRequest{ProductID: productID, Score: score, Comment: comment},
	}
	return s.mutate(ctx, productID, req)
}

// Update changes an existing rating's score or comment.
func (s *Service) Update(ctx context.Context, rating Rating, score int, comment string) (*Rating, error) {
	req := rest.Request{
		Method: http.MethodPut,
		Path:   basePath + "/" + rating.ID,
		Body:   updateRequest{Score: score, Comment: comment},
	}
	return s.mutate(ctx, rating.ProductID, req)
}

// Archive soft-deletes a rating; the server keeps it for history but it
// no longer augments product reads.
func (s *Service) Archive(ctx context.Context, rating Rating) (*Rating, error) {
	req := rest.Request{
		Method: http.MethodPost,
		Path:   basePath + "/" + rating.ID + "/archive",
	}
	return s.mutate(ctx, rating.ProductID, req)
}

func (s *Service) mutate(ctx context.Context, productID string, req rest.Request) (*Rating, error) {
	s.state.Update(func(st State) State {
		st.Meta = lifecycle.Pending(st.Meta, productID)
		return st
	})

	var rating Rating
	if err := s.api.Do(ctx, req, &rating); err != nil {
		return nil, s.reject(productID, err)
	}

	s.state.Update(func(st State) State {
		st.Items = upsert(st.Items, rating)
		st.Meta = lifecycle.Fulfilled(st.Meta, productID)
		return st
	})
	s.session.SetActive()
	return &rating, nil
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
		return errors.Wrap(err, "[ratings.reject] unclassifiable failure")
	}
	s.log.Debug().Str("key", key).Err(err).Msg("rating operation rejected")
	if fault.Kind == faults.KindAuthExpired {
		s.session.Expire()
	}
	return nil
}
