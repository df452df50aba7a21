package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/oauth2"
)

// DefaultGoogleUserInfoURL is Google's OpenID userinfo endpoint.
// Overridable in config so tests can point the provider at a local stub.
const DefaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// userInfoTimeout bounds the round trip to Google. The exchange happens
// before any database write, so a slow or dead provider can only fail
// the request, never leave a half-created user behind.
const userInfoTimeout = 10 * time.Second

// GoogleUser is the portion of the userinfo response we care about.
// Google returns more fields; we only unmarshal what we store.
type GoogleUser struct {
	ID      string `json:"id"`      // Google's stable subject id
	Email   string `json:"email"`   // verified account email
	Name    string `json:"name"`    // display name
	Picture string `json:"picture"` // avatar URL
}

// Validate enforces the userinfo schema: a provider response missing any
// of these, or carrying a malformed email or picture URL, is treated the
// same as the provider rejecting the token.
func (u GoogleUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.ID, validation.Required),
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Picture, validation.Required, is.URL),
	)
}

// GoogleProvider resolves a Google-issued access token into a profile.
//
// Unlike a classic authorization-code flow, the client here (the NLW
// Copa mobile app) completes the OAuth dance itself and sends us the
// resulting access token. Our only job is to call the userinfo endpoint
// with that token and trust the answer as far as the schema allows.
type GoogleProvider struct {
	userInfoURL string
}

// NewGoogleProvider creates a provider against the given userinfo URL.
// Pass DefaultGoogleUserInfoURL outside of tests.
func NewGoogleProvider(userInfoURL string) *GoogleProvider {
	if userInfoURL == "" {
		userInfoURL = DefaultGoogleUserInfoURL
	}
	return &GoogleProvider{userInfoURL: userInfoURL}
}

// Exchange trades an access token for the Google profile it belongs to.
//
// oauth2.NewClient with a static token source gives us an *http.Client
// that attaches "Authorization: Bearer <token>" to every request, the
// same mechanism a code-flow client would use after the exchange.
func (p *GoogleProvider) Exchange(ctx context.Context, accessToken string) (*GoogleUser, error) {
	ctx, cancel := context.WithTimeout(ctx, userInfoTimeout)
	defer cancel()

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("auth: Google userinfo payload failed validation: %w", err)
	}

	return &user, nil
}
