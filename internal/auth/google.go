package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/pathnova/pathnova-api/internal/apperror"
	"github.com/pathnova/pathnova-api/internal/model"
)

const ProviderGoogle = "google"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// IDTokenVerifier checks a provider-issued ID token and returns the
// identity it asserts.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (model.ExternalIdentity, error)
}

// GoogleVerifier validates Google ID tokens against Google's published keys
// and this application's client ID.
type GoogleVerifier struct {
	validator *idtoken.Validator
	audience  string
}

func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleVerifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("auth: google client id is required")
	}
	var opts []option.ClientOption
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: creating google token validator: %w", err)
	}
	return &GoogleVerifier{validator: v, audience: clientID}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (model.ExternalIdentity, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return model.ExternalIdentity{}, apperror.Unauthenticated("missing id token")
	}
	payload, err := v.validator.Validate(ctx, rawIDToken, v.audience)
	if err != nil {
		return model.ExternalIdentity{}, apperror.Unauthenticated("invalid google id token")
	}
	return identityFromPayload(payload)
}

// identityFromPayload maps verified claims to an identity. Google encodes
// email_verified as a bool, but some older tokens carry the string "true".
func identityFromPayload(p *idtoken.Payload) (model.ExternalIdentity, error) {
	issuerOK := false
	for _, iss := range googleIssuers {
		if p.Issuer == iss {
			issuerOK = true
		}
	}
	if !issuerOK {
		return model.ExternalIdentity{}, apperror.Unauthenticated("unexpected token issuer")
	}
	if strings.TrimSpace(p.Subject) == "" {
		return model.ExternalIdentity{}, apperror.Unauthenticated("token has no subject")
	}

	id := model.ExternalIdentity{Provider: ProviderGoogle, Subject: p.Subject}
	if email, ok := p.Claims["email"].(string); ok {
		id.Email = email
	}
	switch v := p.Claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = strings.EqualFold(v, "true")
	}
	if name, ok := p.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// GoogleProvider runs the authorization-code flow and turns the returned ID
// token into a verified identity.
type GoogleProvider struct {
	config   *oauth2.Config
	verifier IDTokenVerifier
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, verifier IDTokenVerifier) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		verifier: verifier,
	}
}

func (p *GoogleProvider) Name() string { return ProviderGoogle }

// AuthURL is the consent screen URL carrying state. Only the ID token from
// the exchange is used and no Google API is called afterwards, so no refresh
// token is requested (online access), and returning users pick an account
// instead of re-approving consent on every sign-in.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for tokens and verifies the ID
// token that comes with them.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (model.ExternalIdentity, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return model.ExternalIdentity{}, apperror.Upstream("google token exchange", err)
	}
	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return model.ExternalIdentity{}, apperror.Unauthenticated("google returned no id token")
	}
	return p.verifier.Verify(ctx, rawIDToken)
}

// VerifyIDToken verifies an ID token obtained directly by the browser.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, rawIDToken string) (model.ExternalIdentity, error) {
	return p.verifier.Verify(ctx, rawIDToken)
}
