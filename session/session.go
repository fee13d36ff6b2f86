// Package session tracks whether the stored credentials are believed
// valid: nil until first checked, true after any successful
// authenticated action, false once any operation observes an expired
// identity token.
package session

import "sync"

// Flag is the tri-state logged-in indicator shared by the feature
// slices. The expiry callback fires exactly once per transition into
// the expired state, which is what lets the UI redirect to sign-in a
// single time per expiry event.
type Flag struct {
	mu       sync.Mutex
	value    *bool
	onExpire func()
}

// Option modifies a Flag.
type Option func(*Flag)

// WithExpiryFunc registers the callback invoked on each transition to
// the expired state.
func WithExpiryFunc(fn func()) Option {
	return func(f *Flag) {
		f.onExpire = fn
	}
}

func NewFlag(options ...Option) *Flag {
	f := &Flag{}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// LoggedIn returns nil (never checked), true (valid) or false (expired
// or signed out).
func (f *Flag) LoggedIn() *bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.value == nil {
		return nil
	}
	v := *f.value
	return &v
}

// SetActive records a successful authenticated action.
func (f *Flag) SetActive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := true
	f.value = &v
}

// Expire records an expired credential. The callback runs only when the
// flag was not already false, so concurrent expiries collapse into one
// redirect.
func (f *Flag) Expire() {
	f.mu.Lock()
	alreadyExpired := f.value != nil && !*f.value
	v := false
	f.value = &v
	callback := f.onExpire
	f.mu.Unlock()

	if !alreadyExpired && callback != nil {
		callback()
	}
}

// Reset returns the flag to its unchecked state (sign-out).
func (f *Flag) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = nil
}
