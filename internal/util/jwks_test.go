package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func TestJWK_ECDSAKeyVerifiesTokens(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	doc, err := json.Marshal(JWKS{Keys: []JWK{{
		Kty: "EC", Crv: "P-256", Alg: "ES256", Use: "sig",
		X: b64(priv.X.FillBytes(make([]byte, 32))),
		Y: b64(priv.Y.FillBytes(make([]byte, 32))),
	}}})
	require.NoError(t, err)

	key, err := ParseJWKS(doc)
	require.NoError(t, err)
	pemKey, err := key.PEM()
	require.NoError(t, err)
	pub, err := ParseECDSAPublicKey(pemKey)
	require.NoError(t, err)
	assert.True(t, pub.Equal(&priv.PublicKey))

	claims := Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(priv)
	require.NoError(t, err)

	parsed, err := ValidateJWT(token, pemKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.Identity())
}

func TestJWK_RSAKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key := JWK{Kty: "RSA", N: b64(priv.N.Bytes()), E: b64(big.NewInt(int64(priv.E)).Bytes())}
	pemKey, err := key.PEM()
	require.NoError(t, err)

	pub, err := ParseRSAPublicKey(pemKey)
	require.NoError(t, err)
	assert.Equal(t, 0, pub.N.Cmp(priv.N))
	assert.Equal(t, priv.E, pub.E)
}

func TestParseJWKS_SkipsEncryptionKeys(t *testing.T) {
	doc := []byte(`{"keys":[{"kty":"RSA","use":"enc","kid":"a"},{"kty":"EC","use":"sig","kid":"b"}]}`)
	key, err := ParseJWKS(doc)
	require.NoError(t, err)
	assert.Equal(t, "b", key.Kid)

	_, err = ParseJWKS([]byte(`{"keys":[]}`))
	assert.Error(t, err)

	_, err = (&JWK{Kty: "oct"}).PEM()
	assert.Error(t, err)
}
