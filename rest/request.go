package rest

import (
	"net/http"
	"net/url"
)

// Request describes one API call. Values are treated as immutable by the
// pipeline: the single permitted retry is built with retry(), which is
// the only way to produce an Attempt greater than zero from inside the
// client. A caller-supplied nonzero Attempt (for example from a resend
// it triggered itself) is honoured and never reset.
type Request struct {
	Method string
	Path   string // joined to the client base URL
	URL    string // absolute URL; overrides Path when set (pagination next links)
	Query  url.Values
	Header http.Header
	Body   any

	// Attempt counts refresh-triggered resends. Zero is the first try;
	// the pipeline refuses to refresh once it is 1 or more.
	Attempt int
}

func (r Request) clone() Request {
	out := r
	if r.Header != nil {
		out.Header = r.Header.Clone()
	}
	if r.Query != nil {
		out.Query = url.Values{}
		for k, vs := range r.Query {
			out.Query[k] = append([]string(nil), vs...)
		}
	}
	return out
}

// retry builds the one-shot resend: same call, stale authorization
// dropped so the request phase attaches the freshly stored token.
func (r Request) retry() Request {
	out := r.clone()
	if out.Header != nil {
		out.Header.Del(authorizationHeader)
	}
	out.Attempt = 1
	return out
}
