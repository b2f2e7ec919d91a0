package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
)

// Algorithm tokens the provider sends in the digest-algorithm header.
const (
	AlgHMACSHA1   = "HMAC_SHA1_HEX"
	AlgHMACSHA256 = "HMAC_SHA256_HEX"
	AlgHMACSHA512 = "HMAC_SHA512_HEX"
)

// digestFor maps a declared algorithm token to its digest constructor.
// Unknown tokens fall back to SHA-256 rather than failing open.
func digestFor(algorithm string) func() hash.Hash {
	switch algorithm {
	case AlgHMACSHA1:
		return sha1.New
	case AlgHMACSHA512:
		return sha512.New
	default:
		return sha256.New
	}
}

// Verifier checks webhook payload signatures against the shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a signature verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify computes HMAC(digest, secret, rawBody) and compares it with the
// supplied hex signature in constant time. It must be called with the
// raw request bytes: re-serialized JSON will not match what the provider
// signed.
func (v *Verifier) Verify(rawBody []byte, signatureHex, algorithm string) bool {
	if len(v.secret) == 0 || signatureHex == "" {
		return false
	}

	supplied, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	mac := hmac.New(digestFor(algorithm), v.secret)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	// hmac.Equal is constant time and treats a length mismatch as unequal
	// without short-circuiting on content.
	return hmac.Equal(supplied, expected)
}

// Sign produces the hex signature for a payload under the given
// algorithm token. Used by tests and internal tooling.
func (v *Verifier) Sign(rawBody []byte, algorithm string) string {
	mac := hmac.New(digestFor(algorithm), v.secret)
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
