package account

import (
	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/lifecycle"
)

// Metadata keys, one per account operation.
const (
	SignUpKey        = "signUp"
	ConfirmSignUpKey = "confirmSignUp"
	SignInKey        = "signIn"
	DeleteUserKey    = "deleteUser"
)

// State is the account feature area: per-operation lifecycle metadata
// plus the classified field/form errors the sign-up and sign-in forms
// render from.
type State struct {
	Meta   lifecycle.MetaMap
	Errors faults.FieldErrors
}

func NewState() State {
	return State{
		Meta:   lifecycle.MetaMap{},
		Errors: faults.NewFieldErrors(),
	}
}

// User is the signed-in identity as carried by the identity token.
type User struct {
	ID    string
	Email string
}
