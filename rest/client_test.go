package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tastemate/tastemate-go/credentials"
	"github.com/tastemate/tastemate-go/rest"
)

// recordingStore wraps the in-memory store and counts Set calls per key.
type recordingStore struct {
	*credentials.Memory
	lock sync.Mutex
	sets map[credentials.Key][]string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		Memory: credentials.NewMemory(),
		sets:   make(map[credentials.Key][]string),
	}
}

func (s *recordingStore) Set(ctx context.Context, key credentials.Key, value string) error {
	s.lock.Lock()
	s.sets[key] = append(s.sets[key], value)
	s.lock.Unlock()
	return s.Memory.Set(ctx, key, value)
}

func (s *recordingStore) setsFor(key credentials.Key) []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.sets[key]...)
}

// fakeRefresher returns a canned token or error and counts calls.
type fakeRefresher struct {
	token string
	err   error

	lock  sync.Mutex
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (string, error) {
	f.lock.Lock()
	f.calls++
	f.lock.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeRefresher) callCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

type fixture struct {
	store     *recordingStore
	refresher *fakeRefresher
	client    *rest.Client
	requests  *requestLog
	baseURL   string
}

type requestLog struct {
	lock sync.Mutex
	auth []string
}

func (l *requestLog) record(r *http.Request) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.auth = append(l.auth, r.Header.Get("Authorization"))
}

func (l *requestLog) count() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.auth)
}

func (l *requestLog) authHeaders() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.auth...)
}

func setupFixture(t *testing.T, handler http.HandlerFunc, options ...rest.Option) *fixture {
	t.Helper()

	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	store := newRecordingStore()
	ctx := context.Background()
	require.NoError(t, store.Memory.Set(ctx, credentials.IdentityToken, "stale-token"))
	require.NoError(t, store.Memory.Set(ctx, credentials.RefreshToken, "refresh-token"))

	refresher := &fakeRefresher{token: "fresh-token"}

	client, err := rest.New(server.URL, store, refresher, options...)
	require.NoError(t, err)

	return &fixture{store: store, refresher: refresher, client: client, requests: log, baseURL: server.URL}
}

func TestRetryCapOn401(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := f.client.Do(context.Background(), rest.Request{Method: http.MethodGet, Path: "/communities"}, nil)
	require.Error(t, err)

	var apiErr *rest.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// One original call plus exactly one resend, one refresh.
	require.Equal(t, 2, f.requests.count())
	require.Equal(t, 1, f.refresher.callCount())
}

func TestCallerSuppliedAttemptIsNotReset(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	req := rest.Request{Method: http.MethodGet, Path: "/communities", Attempt: 1}
	err := f.client.Do(context.Background(), req, nil)
	require.Error(t, err)

	// The allowance is already spent: no refresh, no resend.
	require.Equal(t, 1, f.requests.count())
	require.Equal(t, 0, f.refresher.callCount())
}

func TestRefreshSuccessRoundTrip(t *testing.T) {
	var served int
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		served++
		if served == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "c-1"})
	})

	var out map[string]string
	err := f.client.Do(context.Background(), rest.Request{Method: http.MethodGet, Path: "/communities/c-1"}, &out)
	require.NoError(t, err)
	require.Equal(t, "c-1", out["id"])

	// Exactly one persisted identity token, the freshly minted one.
	require.Equal(t, []string{"fresh-token"}, f.store.setsFor(credentials.IdentityToken))

	// The resend re-read the store, so it carried the new token and
	// not the stale one.
	require.Equal(t, []string{"stale-token", "fresh-token"}, f.requests.authHeaders())
}

func TestRefreshFailurePropagatesOriginal401(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	})
	f.refresher.err = errors.New("refresh token revoked")

	err := f.client.Do(context.Background(), rest.Request{Method: http.MethodGet, Path: "/products"}, nil)

	var apiErr *rest.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "token expired", apiErr.Message)

	// No resend happened and nothing was written to the store.
	require.Equal(t, 1, f.requests.count())
	require.Empty(t, f.store.setsFor(credentials.IdentityToken))
}

func TestNonAuthFailurePassesThrough(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "Forbidden", "message": "not a member"})
	})

	err := f.client.Do(context.Background(), rest.Request{Method: http.MethodGet, Path: "/communities/c-1"}, nil)

	var apiErr *rest.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "not a member", apiErr.Message)
	require.Equal(t, 1, f.requests.count())
	require.Equal(t, 0, f.refresher.callCount())
}

func TestTokenReadAtSendTime(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, f.client.Do(ctx, rest.Request{Method: http.MethodGet, Path: "/a"}, nil))

	require.NoError(t, f.store.Memory.Set(ctx, credentials.IdentityToken, "rotated-token"))
	require.NoError(t, f.client.Do(ctx, rest.Request{Method: http.MethodGet, Path: "/b"}, nil))

	require.Equal(t, []string{"stale-token", "rotated-token"}, f.requests.authHeaders())
}

func TestMissingRefreshTokenShortCircuitsRetry(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	ctx := context.Background()
	require.NoError(t, f.store.Memory.Delete(ctx, credentials.RefreshToken))

	err := f.client.Do(ctx, rest.Request{Method: http.MethodGet, Path: "/communities"}, nil)

	// Nothing to refresh with, so the original 401 comes straight back.
	var apiErr *rest.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, 1, f.requests.count())
	require.Equal(t, 0, f.refresher.callCount())
}

func TestRateLimitGatesRequests(t *testing.T) {
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, rest.WithRateLimit(1, 1))

	ctx := context.Background()
	require.NoError(t, f.client.Do(ctx, rest.Request{Method: http.MethodGet, Path: "/a"}, nil))

	// The burst allowance is spent; the next call would have to wait a
	// full second, longer than this deadline allows.
	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	err := f.client.Do(shortCtx, rest.Request{Method: http.MethodGet, Path: "/b"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limiter")
	require.Equal(t, 1, f.requests.count())
}

func TestAbsoluteURLOverridesPath(t *testing.T) {
	var gotPath string
	f := setupFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.WriteHeader(http.StatusNoContent)
	})

	// Pagination next links come back absolute and are consumed verbatim.
	next := f.baseURL + "/communities?cursor=abc"
	require.NoError(t, f.client.Do(context.Background(), rest.Request{Method: http.MethodGet, URL: next}, nil))
	require.Equal(t, "/communities?cursor=abc", gotPath)
}
