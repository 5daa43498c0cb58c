package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/aws-samples/integrate-amazon-connect-with-smart-on-fhir-backend-services/smartfhir/constants"
)

const jtiAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// assertionHeader is fixed; the backend accepts RS384 only.
type assertionHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Signer produces a raw RS384 signature over an assertion's signing input.
// The production implementation delegates to KMS; the private key is never
// available locally.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Assertion holds the two encoded segments of an unsigned JWT bearer
// assertion. Exactly one assertion is built and consumed per authentication
// attempt; the fresh jti on each build is what makes replay detection work,
// so assertions must never be cached.
type Assertion struct {
	header string
	claims string
}

// NewAssertion builds the unsigned assertion for the given client identity
// and token endpoint. A window of zero selects the default expiry.
func NewAssertion(clientID, audience string, window time.Duration) (Assertion, error) {
	if window <= 0 {
		window = constants.DefaultExpiryWindowMinutes * time.Minute
	}

	h, err := json.Marshal(assertionHeader{Alg: constants.JWTSigningAlg, Typ: "JWT"})
	if err != nil {
		return Assertion{}, errors.Wrap(err, "failed to encode assertion header")
	}

	jti, err := randomJTI(constants.JTILength)
	if err != nil {
		return Assertion{}, err
	}

	c, err := json.Marshal(jwt.StandardClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  audience,
		Id:        jti,
		ExpiresAt: time.Now().Add(window).Unix(),
	})
	if err != nil {
		return Assertion{}, errors.Wrap(err, "failed to encode assertion claims")
	}

	return Assertion{
		header: base64.RawURLEncoding.EncodeToString(h),
		claims: base64.RawURLEncoding.EncodeToString(c),
	}, nil
}

// SigningInput returns the header and claims segments joined by ".", the
// exact bytes the custodian signs.
func (a Assertion) SigningInput() string {
	return a.header + "." + a.claims
}

// Encode appends the raw signature as the third segment, producing the
// complete client assertion.
func (a Assertion) Encode(signature []byte) string {
	return a.SigningInput() + "." + base64.RawURLEncoding.EncodeToString(signature)
}

// randomJTI draws n letters from crypto/rand. Letters only, matching what the
// token endpoint was registered to expect.
func randomJTI(n int) (string, error) {
	max := big.NewInt(int64(len(jtiAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate jti")
		}
		b[i] = jtiAlphabet[idx.Int64()]
	}
	return string(b), nil
}
