package identity

import "fmt"

// Code identifies a provider failure. The set is closed: the wire
// decoder maps every error body onto one of these values so that no
// other package ever re-parses provider error strings.
type Code string

const (
	CodeNotAuthorized    Code = "NotAuthorizedException"
	CodeUserNotFound     Code = "UserNotFoundException"
	CodeUsernameExists   Code = "UsernameExistsException"
	CodeInvalidPassword  Code = "InvalidPasswordException"
	CodeInvalidParameter Code = "InvalidParameterException"
	CodeCodeMismatch     Code = "CodeMismatchException"
	CodeExpiredCode      Code = "ExpiredCodeException"
	CodeUserNotConfirmed Code = "UserNotConfirmedException"
	CodeLimitExceeded    Code = "LimitExceededException"
	CodeInternal         Code = "InternalErrorException"
)

var knownCodes = map[Code]struct{}{
	CodeNotAuthorized:    {},
	CodeUserNotFound:     {},
	CodeUsernameExists:   {},
	CodeInvalidPassword:  {},
	CodeInvalidParameter: {},
	CodeCodeMismatch:     {},
	CodeExpiredCode:      {},
	CodeUserNotConfirmed: {},
	CodeLimitExceeded:    {},
	CodeInternal:         {},
}

// ProviderError is a failure reported by the identity provider,
// produced once at the wire boundary.
type ProviderError struct {
	Code       Code
	Message    string
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %s (status %d): %s", e.Code, e.HTTPStatus, e.Message)
}

// Known reports whether the code belongs to the provider taxonomy. An
// unknown code still carries its message through to classification.
func (e *ProviderError) Known() bool {
	_, ok := knownCodes[e.Code]
	return ok
}
