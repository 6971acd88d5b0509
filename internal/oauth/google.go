package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/BradenHooton/taskpilot/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleClient brokers the server-side authorization-code flow: it builds
// the consent URL, exchanges the returned code for provider tokens, and
// fetches the user's profile. The client never sees provider credentials.
type GoogleClient struct {
	config *oauth2.Config
}

// NewGoogleClient creates a GoogleClient for the given app credentials.
// redirectURL must match a redirect URI registered in the Google console.
func NewGoogleClient(clientID, clientSecret, redirectURL string) *GoogleClient {
	return &GoogleClient{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthorizationURL returns the Google consent page URL for the given
// anti-forgery state value.
func (c *GoogleClient) AuthorizationURL(state string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a provider access token.
func (c *GoogleClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// googleUserInfo is the subset of the userinfo payload the service consumes
type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// FetchUserInfo retrieves the user's profile with the provider access token
// and returns it as an external identity assertion.
func (c *GoogleClient) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.ExternalIdentity, error) {
	client := c.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain the body so the connection can be reused, but never
		// propagate provider error payloads to our callers.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("userinfo response missing required fields")
	}

	return &models.ExternalIdentity{
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}
