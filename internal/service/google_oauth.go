package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"coinvest/config"
	"coinvest/internal/apperr"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProfile is the identity returned by Google for a signed-in user.
type GoogleProfile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

var ErrGoogleNotConfigured = apperr.New(apperr.KindValidation, "Google OAuth not configured")

// GoogleOAuth runs the web code flow and verifies mobile ID tokens.
type GoogleOAuth struct {
	cfg         config.OAuthConfig
	userInfoURL string
	tokenInfo   string
	client      *http.Client
}

func NewGoogleOAuth(cfg config.OAuthConfig) *GoogleOAuth {
	return &GoogleOAuth{
		cfg:         cfg,
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		tokenInfo:   "https://oauth2.googleapis.com/tokeninfo",
		client:      http.DefaultClient,
	}
}

func (g *GoogleOAuth) Enabled() bool { return g.cfg.GoogleClientID != "" }

func (g *GoogleOAuth) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.cfg.GoogleClientID,
		ClientSecret: g.cfg.GoogleClientSecret,
		RedirectURL:  g.cfg.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

// AuthURL is the consent screen URL; state is echoed back to the callback.
func (g *GoogleOAuth) AuthURL(state string) (string, error) {
	if !g.Enabled() {
		return "", ErrGoogleNotConfigured
	}
	return g.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades an authorization code for the user's profile.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	if !g.Enabled() {
		return nil, ErrGoogleNotConfigured
	}
	conf := g.oauth2Config()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Google sign-in failed", err)
	}
	resp, err := conf.Client(ctx, tok).Get(g.userInfoURL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Internal(fmt.Errorf("google userinfo: status %d", resp.StatusCode))
	}
	var info struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperr.Internal(err)
	}
	return &GoogleProfile{ID: info.ID, Email: info.Email, FirstName: info.GivenName, LastName: info.FamilyName}, nil
}

// VerifyIDToken checks a mobile ID token with Google's tokeninfo endpoint and that it was issued
// for our client.
func (g *GoogleOAuth) VerifyIDToken(ctx context.Context, idToken string) (*GoogleProfile, error) {
	if !g.Enabled() {
		return nil, ErrGoogleNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.tokenInfo+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperr.Unauthorized("Invalid Google token")
	}
	var info struct {
		Sub        string `json:"sub"`
		Aud        string `json:"aud"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperr.Internal(err)
	}
	if info.Sub == "" || info.Email == "" || info.Aud != g.cfg.GoogleClientID {
		return nil, apperr.Unauthorized("Invalid Google token")
	}
	return &GoogleProfile{ID: info.Sub, Email: info.Email, FirstName: info.GivenName, LastName: info.FamilyName}, nil
}
