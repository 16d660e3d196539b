package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/package-registry/internal/model"
)

const githubAPIURL = "https://api.github.com"

// githubUser is the part of GitHub's /user response we keep.
// https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
}

// GitHubProvider runs the GitHub authorization code flow.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

// NewGitHubProvider creates a provider against github.com.
// callbackURL must match the OAuth App's "Authorization callback URL".
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return NewGitHubProviderWithEndpoint(clientID, clientSecret, callbackURL, github.Endpoint, githubAPIURL)
}

// NewGitHubProviderWithEndpoint points the provider at another OAuth endpoint
// and API base URL, e.g. GitHub Enterprise or a test server.
func NewGitHubProviderWithEndpoint(clientID, clientSecret, callbackURL string, endpoint oauth2.Endpoint, apiURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
	}
}

// AuthURL returns the provider URL the browser is sent to. state is echoed
// back on the callback.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the caller's GitHub identity.
// The returned Identity carries the provider access token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*model.Identity, error) {
	if code == "" {
		return nil, errors.New("auth: missing authorization code")
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if gh.ID == 0 || gh.Login == "" {
		return nil, errors.New("auth: GitHub returned an incomplete user")
	}

	return &model.Identity{
		GitHubID:    gh.ID,
		Login:       gh.Login,
		Email:       gh.Email,
		AvatarURL:   gh.AvatarURL,
		Name:        gh.Name,
		AccessToken: tok.AccessToken,
	}, nil
}
