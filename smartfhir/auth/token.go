package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/log"
	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

// TokenResponse is the token endpoint's parsed body. On non-200 statuses the
// fields are whatever the endpoint sent back, usually nothing.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// TokenResult carries the endpoint's status code unchanged. Callers must
// check StatusCode before trusting Token.AccessToken.
type TokenResult struct {
	StatusCode int
	Token      TokenResponse
}

// TokenClient performs the JWT-bearer client-credentials grant. It holds no
// token state; every Exchange is a fresh grant.
type TokenClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewTokenClient(endpoint string, httpClient *http.Client) *TokenClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TokenClient{endpoint: endpoint, httpClient: httpClient}
}

// Exchange POSTs the completed assertion and returns the endpoint's status
// and parsed body. There are no retries; a non-2xx status passes through for
// the caller to interpret.
func (c *TokenClient) Exchange(assertion string) (TokenResult, error) {
	form := url.Values{}
	form.Set("grant_type", constants.GrantTypeClientCredentials)
	form.Set("client_assertion_type", constants.ClientAssertionType)
	form.Set("client_assertion", assertion)

	resp, err := c.httpClient.PostForm(c.endpoint, form)
	if err != nil {
		return TokenResult{}, errors.Wrap(err, "token request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenResult{}, errors.Wrap(err, "failed to read token response")
	}

	log.Auth.WithField("resp_code", resp.StatusCode).Info("token exchange")

	result := TokenResult{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &result.Token); err != nil {
		// Error statuses may carry non-JSON bodies; the status code is still
		// meaningful to the caller.
		if resp.StatusCode == http.StatusOK {
			return result, errors.Wrap(err, "failed to parse token response")
		}
	}
	return result, nil
}
