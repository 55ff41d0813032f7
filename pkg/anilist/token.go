package anilist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultTokenURL is AniList's OAuth token endpoint.
const DefaultTokenURL = "https://anilist.co/api/v2/oauth/token"

// ClientCredentialsToken exchanges an OAuth client id/secret pair for an
// access token. Used once by the token command; the token then lives in the
// config file.
func ClientCredentialsToken(ctx context.Context, tokenURL, clientID, clientSecret string) (string, error) {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	token := gjson.GetBytes(raw, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("token request: no access_token in response")
	}
	return token, nil
}
