package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	// ClientID is the GitHub OAuth app of the uploader.
	ClientID = "Ov23liOpq5oOaViY5O5O"
)

// Scopes requested during the device flow.
var Scopes = []string{"public_repo"}

// DeviceCode is what the user has to type at VerificationURI.
type DeviceCode struct {
	UserCode        string
	VerificationURI string
	ValidFor        time.Duration

	response *oauth2.DeviceAuthResponse
}

// DeviceFlow is the OAuth device authorization grant.
type DeviceFlow interface {
	Start(ctx context.Context) (*DeviceCode, error)
	Poll(ctx context.Context, code *DeviceCode) (string, error)
}

type OAuthDeviceFlow struct {
	config *oauth2.Config
	client *http.Client
}

func NewOAuthDeviceFlow(clientID string) *OAuthDeviceFlow {
	if clientID == "" {
		clientID = ClientID
	}
	return &OAuthDeviceFlow{
		config: &oauth2.Config{
			ClientID: clientID,
			Scopes:   Scopes,
			Endpoint: github.Endpoint,
		},
	}
}

// WithEndpoint points the flow at another authorization server.
func (f *OAuthDeviceFlow) WithEndpoint(endpoint oauth2.Endpoint) *OAuthDeviceFlow {
	f.config.Endpoint = endpoint
	return f
}

func (f *OAuthDeviceFlow) WithHTTPClient(client *http.Client) *OAuthDeviceFlow {
	f.client = client
	return f
}

func (f *OAuthDeviceFlow) ctx(ctx context.Context) context.Context {
	if f.client != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, f.client)
	}
	return ctx
}

func (f *OAuthDeviceFlow) Start(ctx context.Context) (*DeviceCode, error) {
	resp, err := f.config.DeviceAuth(f.ctx(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "initiate device flow")
	}

	code := &DeviceCode{
		UserCode:        resp.UserCode,
		VerificationURI: resp.VerificationURI,
		response:        resp,
	}
	if !resp.Expiry.IsZero() {
		code.ValidFor = time.Until(resp.Expiry).Round(time.Second)
	}
	return code, nil
}

// Poll waits until the user approves the code, the code expires or ctx ends.
func (f *OAuthDeviceFlow) Poll(ctx context.Context, code *DeviceCode) (string, error) {
	if code == nil || code.response == nil {
		return "", errors.New("device flow was not started")
	}
	token, err := f.config.DeviceAccessToken(f.ctx(ctx), code.response)
	if err != nil {
		return "", errors.Wrap(err, "wait for device flow approval")
	}
	if token.AccessToken == "" {
		return "", errors.New("device flow returned an empty token")
	}
	return token.AccessToken, nil
}
