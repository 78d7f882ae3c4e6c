// SPDX-License-Identifier: MIT

package googleauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthClientToken(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"Email":           r.PostFormValue("Email"),
			"EncryptedPasswd": r.PostFormValue("EncryptedPasswd"),
			"service":         r.PostFormValue("service"),
			"androidId":       r.PostFormValue("androidId"),
			"app":             r.PostFormValue("app"),
		}
		_, _ = w.Write([]byte("SID=abc\nLSID=def\nAuth=ya29.the-token\nservices=mail\n"))
	}))
	defer srv.Close()

	client := NewOAuthClientURL(srv.URL)
	tok, err := client.Token(context.Background(), "user@example.com", "aas_et/secret", "0123456789abcdef", ScopeNest)
	require.NoError(t, err)
	assert.Equal(t, "ya29.the-token", tok)

	assert.Equal(t, "user@example.com", gotForm["Email"])
	assert.Equal(t, "aas_et/secret", gotForm["EncryptedPasswd"])
	assert.Equal(t, ScopeNest, gotForm["service"])
	assert.Equal(t, "0123456789abcdef", gotForm["androidId"])
	assert.Equal(t, appName, gotForm["app"])
}

func TestOAuthClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Error=BadAuthentication\n"))
	}))
	defer srv.Close()

	client := NewOAuthClientURL(srv.URL)
	_, err := client.Token(context.Background(), "user@example.com", "bad", "0123456789abcdef", ScopeAccount)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BadAuthentication")
}

func TestOAuthClientMissingAuthLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("SID=abc\n"))
	}))
	defer srv.Close()

	client := NewOAuthClientURL(srv.URL)
	_, err := client.Token(context.Background(), "user@example.com", "tok", "0123456789abcdef", ScopeAccount)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestParseKeyValueBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want string
	}{
		{name: "plain", body: "Auth=token123\n", key: "Auth", want: "token123"},
		{name: "value contains equals", body: "Auth=abc=def==\n", key: "Auth", want: "abc=def=="},
		{name: "crlf line endings", body: "Auth=token123\r\nSID=x\r\n", key: "Auth", want: "token123"},
		{name: "missing key", body: "SID=x\n", key: "Auth", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseKeyValueBody(tc.body)[tc.key]
			assert.Equal(t, tc.want, got)
		})
	}
}
