package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
}

// ParseJWKS decodes a JWKS document and returns its first signing key.
func ParseJWKS(data []byte) (*JWK, error) {
	var set JWKS
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	for i := range set.Keys {
		if set.Keys[i].Use == "" || set.Keys[i].Use == "sig" {
			return &set.Keys[i], nil
		}
	}
	return nil, errors.New("no signing key found in JWKS")
}

// PEM encodes the key as a PKIX public key usable as JWT_SECRET.
func (k *JWK) PEM() (string, error) {
	var pub interface{}
	switch k.Kty {
	case "EC":
		curve, err := curveFor(k.Crv)
		if err != nil {
			return "", err
		}
		x, err := decodeBigInt(k.X)
		if err != nil {
			return "", fmt.Errorf("decoding x coordinate: %w", err)
		}
		y, err := decodeBigInt(k.Y)
		if err != nil {
			return "", fmt.Errorf("decoding y coordinate: %w", err)
		}
		pub = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	case "RSA":
		n, err := decodeBigInt(k.N)
		if err != nil {
			return "", fmt.Errorf("decoding modulus: %w", err)
		}
		e, err := decodeBigInt(k.E)
		if err != nil {
			return "", fmt.Errorf("decoding exponent: %w", err)
		}
		pub = &rsa.PublicKey{N: n, E: int(e.Int64())}
	default:
		return "", fmt.Errorf("unsupported key type %q", k.Kty)
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func curveFor(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256", "":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	}
	return nil, fmt.Errorf("unsupported curve %q", crv)
}

func decodeBigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
