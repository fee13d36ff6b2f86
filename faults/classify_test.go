package faults_test

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/identity"
	"github.com/tastemate/tastemate-go/rest"
)

func TestInvalidPasswordBecomesPasswordFieldFault(t *testing.T) {
	fault := faults.Classify(&identity.ProviderError{
		Code:       identity.CodeInvalidPassword,
		Message:    "Password must contain an uppercase letter",
		HTTPStatus: http.StatusBadRequest,
	})

	require.Equal(t, faults.KindField, fault.Kind)
	require.Equal(t, "password", fault.Field)
	require.Equal(t, "Password must contain an uppercase letter", fault.Message)
}

func TestDuplicateRegistrationBecomesEmailFieldFault(t *testing.T) {
	fault := faults.Classify(&identity.ProviderError{
		Code:       identity.CodeUsernameExists,
		Message:    "An account with this email already exists",
		HTTPStatus: http.StatusBadRequest,
	})

	require.Equal(t, faults.KindField, fault.Kind)
	require.Equal(t, "email", fault.Field)
}

func TestUnauthorizedAlwaysMeansAuthExpired(t *testing.T) {
	// Regardless of message content.
	fault := faults.Classify(&rest.Error{StatusCode: http.StatusUnauthorized, Message: "whatever"})
	require.Equal(t, faults.KindAuthExpired, fault.Kind)
	require.Empty(t, fault.Message)

	fault = faults.Classify(&identity.ProviderError{
		Code:       identity.CodeNotAuthorized,
		Message:    "token expired",
		HTTPStatus: http.StatusUnauthorized,
	})
	require.Equal(t, faults.KindAuthExpired, fault.Kind)
}

func TestAmbiguousParameterFaultDisambiguatedByMessage(t *testing.T) {
	fault := faults.Classify(&identity.ProviderError{
		Code:       identity.CodeInvalidParameter,
		Message:    "Value at 'password' failed to satisfy constraint",
		HTTPStatus: http.StatusBadRequest,
	})
	require.Equal(t, faults.KindField, fault.Kind)
	require.Equal(t, "password", fault.Field)

	fault = faults.Classify(&identity.ProviderError{
		Code:       identity.CodeInvalidParameter,
		Message:    "Invalid email address format",
		HTTPStatus: http.StatusBadRequest,
	})
	require.Equal(t, faults.KindField, fault.Kind)
	require.Equal(t, "email", fault.Field)

	fault = faults.Classify(&identity.ProviderError{
		Code:       identity.CodeInvalidParameter,
		Message:    "Missing required parameter",
		HTTPStatus: http.StatusBadRequest,
	})
	require.Equal(t, faults.KindForm, fault.Kind)
}

func TestUnclassifiedMessageBecomesFormFault(t *testing.T) {
	fault := faults.Classify(errors.New("service unavailable"))
	require.Equal(t, faults.KindForm, fault.Kind)
	require.Equal(t, "service unavailable", fault.Message)

	fault = faults.Classify(&rest.Error{StatusCode: http.StatusConflict, Message: "rating already exists"})
	require.Equal(t, faults.KindForm, fault.Kind)
	require.Equal(t, "rating already exists", fault.Message)
}

func TestNoStatusNoMessageIsUnknown(t *testing.T) {
	require.Equal(t, faults.KindUnknown, faults.Classify(nil).Kind)
}

func TestFieldErrorsBucketsAreExclusive(t *testing.T) {
	fe := faults.NewFieldErrors()
	fe.Add(faults.FieldFault("password", "too short"))
	fe.Add(faults.FormFault("sign up failed"))
	fe.Add(faults.AuthExpired()) // never recorded

	require.Equal(t, []string{"too short"}, fe.Fields["password"])
	require.Equal(t, []string{"sign up failed"}, fe.Form)
	require.Len(t, fe.Fields, 1)

	fe.ClearField("password")
	require.Empty(t, fe.Fields)
	fe.ClearForm()
	require.True(t, fe.Empty())
}
