package config

import "fmt"

const (
	regionVar           = "TASTEMATE_REGION"
	userPoolIDVar       = "TASTEMATE_USER_POOL_ID"
	clientIDVar         = "TASTEMATE_CLIENT_ID"
	identityEndpointVar = "TASTEMATE_IDENTITY_ENDPOINT"
)

// Identity holds the identity-provider settings: which regional endpoint
// to call and which client/user-pool pair the app is registered under.
type Identity struct{}

var _ IdentityConfig = Identity{}

func (Identity) GetRegion() string {
	return GetEnv(regionVar, "eu-west-1")
}

func (Identity) GetUserPoolID() string {
	return GetEnv(userPoolIDVar, "")
}

func (Identity) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

// GetIdentityEndpoint returns the provider endpoint. When not set
// explicitly it is derived from the region.
func (i Identity) GetIdentityEndpoint() string {
	if endpoint := GetEnv(identityEndpointVar, ""); endpoint != "" {
		return endpoint
	}
	return fmt.Sprintf("https://identity.%s.tastemate.app", i.GetRegion())
}
