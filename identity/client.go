package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tastemate/tastemate-go/internal/config"
)

const (
	contentType  = "application/x-tm-json-1.0"
	targetHeader = "X-Tm-Target"
	targetPrefix = "IdentityService."

	authFlowUserPassword = "USER_PASSWORD"
	authFlowRefreshToken = "REFRESH_TOKEN"
)

// Client talks to the identity provider: a single region-scoped JSON
// endpoint where the operation is selected by a target header and every
// request is keyed by the app's client ID and user pool ID.
type Client struct {
	endpoint   string
	clientID   string
	userPoolID string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option modifies a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates an identity provider client from the identity configuration.
func New(cfg config.IdentityConfig, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[identity.New] config is required")
	}
	if cfg.GetClientID() == "" {
		return nil, errors.New("[identity.New] client ID is required")
	}
	if cfg.GetUserPoolID() == "" {
		return nil, errors.New("[identity.New] user pool ID is required")
	}

	client := &Client{
		endpoint:   cfg.GetIdentityEndpoint(),
		clientID:   cfg.GetClientID(),
		userPoolID: cfg.GetUserPoolID(),
		httpClient: http.DefaultClient,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// TokenPair is the credential pair issued by a successful sign-in.
type TokenPair struct {
	IdentityToken string
	RefreshToken  string
}

type signUpRequest struct {
	ClientID   string `json:"ClientId"`
	UserPoolID string `json:"UserPoolId"`
	Username   string `json:"Username"`
	Password   string `json:"Password"`
}

type confirmSignUpRequest struct {
	ClientID         string `json:"ClientId"`
	UserPoolID       string `json:"UserPoolId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
}

type authRequest struct {
	ClientID       string            `json:"ClientId"`
	UserPoolID     string            `json:"UserPoolId"`
	AuthFlow       string            `json:"AuthFlow"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type authResponse struct {
	AuthenticationResult struct {
		IdentityToken string `json:"IdentityToken"`
		RefreshToken  string `json:"RefreshToken"`
	} `json:"AuthenticationResult"`
}

type deleteUserRequest struct {
	AccessToken string `json:"AccessToken"`
}

// SignUp registers a new user. The account stays unusable until it is
// confirmed with the code the provider sends out of band.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	req := signUpRequest{
		ClientID:   c.clientID,
		UserPoolID: c.userPoolID,
		Username:   email,
		Password:   password,
	}
	return c.call(ctx, "SignUp", req, nil)
}

// ConfirmSignUp completes registration with the emailed confirmation code.
func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	req := confirmSignUpRequest{
		ClientID:         c.clientID,
		UserPoolID:       c.userPoolID,
		Username:         email,
		ConfirmationCode: code,
	}
	return c.call(ctx, "ConfirmSignUp", req, nil)
}

// SignIn exchanges credentials for an identity/refresh token pair.
func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	req := authRequest{
		ClientID:   c.clientID,
		UserPoolID: c.userPoolID,
		AuthFlow:   authFlowUserPassword,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}
	var resp authResponse
	if err := c.call(ctx, "SignIn", req, &resp); err != nil {
		return nil, err
	}
	return &TokenPair{
		IdentityToken: resp.AuthenticationResult.IdentityToken,
		RefreshToken:  resp.AuthenticationResult.RefreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a new identity token. The
// refresh token itself is not rotated by the provider.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	req := authRequest{
		ClientID:   c.clientID,
		UserPoolID: c.userPoolID,
		AuthFlow:   authFlowRefreshToken,
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	}
	var resp authResponse
	if err := c.call(ctx, "Refresh", req, &resp); err != nil {
		return "", err
	}
	return resp.AuthenticationResult.IdentityToken, nil
}

// DeleteUser removes the account owning the given identity token.
func (c *Client) DeleteUser(ctx context.Context, identityToken string) error {
	return c.call(ctx, "DeleteUser", deleteUserRequest{AccessToken: identityToken}, nil)
}

func (c *Client) call(ctx context.Context, target string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "[identity.call] marshal %s", target)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "[identity.call] build %s request", target)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set(targetHeader, targetPrefix+target)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "[identity.call] %s", target)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "[identity.call] read %s response", target)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		providerErr := decodeError(resp.StatusCode, respBody)
		c.log.Debug().
			Str("target", target).
			Int("status", resp.StatusCode).
			Str("code", string(providerErr.Code)).
			Msg("identity provider call failed")
		return providerErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(err, "[identity.call] decode %s response", target)
	}
	return nil
}

type wireError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

func decodeError(status int, body []byte) *ProviderError {
	var we wireError
	if err := json.Unmarshal(body, &we); err != nil || we.Type == "" {
		return &ProviderError{
			Code:       CodeInternal,
			Message:    string(bytes.TrimSpace(body)),
			HTTPStatus: status,
		}
	}
	return &ProviderError{
		Code:       Code(we.Type),
		Message:    we.Message,
		HTTPStatus: status,
	}
}
