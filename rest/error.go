package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is a non-2xx API response. The pipeline returns it unchanged
// for every failure class except the single 401 it absorbs by
// refreshing and resending.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// AuthExpired reports whether the response signals an expired or
// missing identity token.
func (e *Error) AuthExpired() bool {
	return e.StatusCode == http.StatusUnauthorized
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(status int, body []byte) *Error {
	apiErr := &Error{StatusCode: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
	}
	return apiErr
}
