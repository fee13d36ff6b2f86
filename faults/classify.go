package faults

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/tastemate/tastemate-go/identity"
	"github.com/tastemate/tastemate-go/rest"
)

// fieldTargets is the fixed mapping from provider error codes to the
// input each one concerns. Codes absent here fall through to the form
// bucket.
var fieldTargets = map[identity.Code]string{
	identity.CodeInvalidPassword:  "password",
	identity.CodeUsernameExists:   "email",
	identity.CodeUserNotFound:     "email",
	identity.CodeUserNotConfirmed: "email",
	identity.CodeCodeMismatch:     "code",
	identity.CodeExpiredCode:      "code",
}

// Classify buckets a failure. Precedence: a 401 HTTP status always
// means auth-expired, independent of any message; a known provider code
// with a field target becomes a field fault; anything else with a
// message becomes a form fault; a failure with neither status nor
// message is unknown.
func Classify(err error) Fault {
	if err == nil {
		return Fault{Kind: KindUnknown}
	}

	var apiErr *rest.Error
	if errors.As(err, &apiErr) {
		if apiErr.AuthExpired() {
			return AuthExpired()
		}
		if apiErr.Message != "" {
			return FormFault(apiErr.Message)
		}
		return FormFault(http.StatusText(apiErr.StatusCode))
	}

	var providerErr *identity.ProviderError
	if errors.As(err, &providerErr) {
		return classifyProvider(providerErr)
	}

	if msg := err.Error(); msg != "" {
		return FormFault(msg)
	}
	return Fault{Kind: KindUnknown}
}

func classifyProvider(err *identity.ProviderError) Fault {
	if err.HTTPStatus == http.StatusUnauthorized {
		return AuthExpired()
	}

	if field, ok := fieldTargets[err.Code]; ok {
		return FieldFault(field, err.Message)
	}

	// InvalidParameter is ambiguous about which input it concerns; the
	// message text is the only signal the provider gives.
	if err.Code == identity.CodeInvalidParameter {
		lower := strings.ToLower(err.Message)
		switch {
		case strings.Contains(lower, "password"):
			return FieldFault("password", err.Message)
		case strings.Contains(lower, "email") || strings.Contains(lower, "username"):
			return FieldFault("email", err.Message)
		}
	}

	if err.Message != "" {
		return FormFault(err.Message)
	}
	return Fault{Kind: KindUnknown}
}
