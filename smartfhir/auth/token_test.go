package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

func TestExchange(t *testing.T) {
	const assertion = "aGVhZGVy.Y2xhaW1z.c2ln"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, constants.GrantTypeClientCredentials, r.PostFormValue("grant_type"))
		assert.Equal(t, constants.ClientAssertionType, r.PostFormValue("client_assertion_type"))
		assert.Equal(t, assertion, r.PostFormValue("client_assertion"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"access_token":"tok123","token_type":"bearer","expires_in":300}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	result, err := NewTokenClient(server.URL, nil).Exchange(assertion)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "tok123", result.Token.AccessToken)
	assert.Equal(t, "bearer", result.Token.TokenType)
	assert.Equal(t, 300, result.Token.ExpiresIn)
}

func TestExchangeDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, err := w.Write([]byte(`{"error":"invalid_client"}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	result, err := NewTokenClient(server.URL, nil).Exchange("bad.assertion.sig")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Empty(t, result.Token.AccessToken)
}

func TestExchangeNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, err := w.Write([]byte("<html>maintenance</html>"))
		require.NoError(t, err)
	}))
	defer server.Close()

	result, err := NewTokenClient(server.URL, nil).Exchange("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
}

func TestExchangeMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("not json"))
		require.NoError(t, err)
	}))
	defer server.Close()

	_, err := NewTokenClient(server.URL, nil).Exchange("a.b.c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token response")
}

func TestExchangeUnreachableEndpoint(t *testing.T) {
	_, err := NewTokenClient("http://127.0.0.1:1/token", nil).Exchange("a.b.c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request failed")
}
