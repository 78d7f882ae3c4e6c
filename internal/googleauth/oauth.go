// SPDX-License-Identifier: MIT

package googleauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Scopes requested from the Android auth endpoint. Same call shape, distinct
// cache slots.
const (
	// ScopeAccount is the account-management scope used for directory access.
	ScopeAccount = "oauth2:https://www.google.com/accounts/OAuthLogin"
	// ScopeNest is the camera-service scope used for manifest and clip requests.
	ScopeNest = "oauth2:https://www.googleapis.com/auth/nest-account"
)

const (
	defaultAuthURL  = "https://android.clients.google.com/auth"
	oauthUserAgent  = "GoogleAuth/1.4"
	appName         = "com.google.android.apps.chromecast.app"
	clientSignature = "24bb24c05e47e0aefa68a58a766179d9b613a600"
)

// ErrNoToken indicates the auth endpoint answered without an Auth value.
var ErrNoToken = errors.New("googleauth: no Auth token in response")

// Authenticator exchanges a master credential for a scoped bearer token.
type Authenticator interface {
	Token(ctx context.Context, username, masterToken, deviceID, scope string) (string, error)
}

// OAuthClient is the production Authenticator. It speaks the Android device
// auth form protocol: a form POST answered with key=value lines.
type OAuthClient struct {
	url  string
	http *http.Client
}

// NewOAuthClient builds an OAuthClient against the production endpoint.
func NewOAuthClient() *OAuthClient {
	return &OAuthClient{
		url:  defaultAuthURL,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewOAuthClientURL builds an OAuthClient against the given endpoint, for tests.
func NewOAuthClientURL(rawURL string) *OAuthClient {
	c := NewOAuthClient()
	c.url = rawURL
	return c
}

// Token implements Authenticator.
func (o *OAuthClient) Token(ctx context.Context, username, masterToken, deviceID, scope string) (string, error) {
	form := url.Values{
		"accountType":                  {"HOSTED_OR_GOOGLE"},
		"Email":                        {username},
		"has_permission":               {"1"},
		"EncryptedPasswd":              {masterToken},
		"service":                      {scope},
		"source":                       {"android"},
		"androidId":                    {deviceID},
		"app":                          {appName},
		"client_sig":                   {clientSignature},
		"device_country":               {"us"},
		"operatorCountry":              {"us"},
		"lang":                         {"en"},
		"sdk_version":                  {"17"},
		"google_play_services_version": {"240913000"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("googleauth: build token request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", oauthUserAgent)

	res, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("googleauth: token request: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("googleauth: read token response: %w", err)
	}

	fields := parseKeyValueBody(string(body))
	if tok, ok := fields["Auth"]; ok && tok != "" {
		return tok, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if reason, ok := fields["Error"]; ok {
			return "", fmt.Errorf("googleauth: token request failed (HTTP %d): %s", res.StatusCode, reason)
		}
		return "", fmt.Errorf("googleauth: token request failed (HTTP %d)", res.StatusCode)
	}
	if reason, ok := fields["Error"]; ok {
		return "", fmt.Errorf("%w (%s)", ErrNoToken, reason)
	}
	return "", ErrNoToken
}

// parseKeyValueBody splits a key=value\n response body. Values may contain
// '=' themselves (master tokens do), so only the first separator counts.
func parseKeyValueBody(body string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
