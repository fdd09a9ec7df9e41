package pairing

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"

	apcrypto "github.com/airplay2/airplay2/crypto"
)

// raopBase64 is the unpadded standard alphabet the RAOP challenge-response
// handshake uses for Apple-Challenge/Apple-Response header values (§4.2).
var raopBase64 = base64.StdEncoding.WithPadding(base64.NoPadding)

const appleChallengeSize = 16

// BuildAppleChallenge generates a fresh 16-byte random challenge and returns
// its unpadded-base64 encoding, suitable for the Apple-Challenge RTSP header
// sent with the client's first request.
func BuildAppleChallenge() (challenge []byte, encoded string, err error) {
	challenge = make([]byte, appleChallengeSize)
	if _, err := rand.Read(challenge); err != nil {
		return nil, "", &Error{Kind: ProtocolError, Msg: err.Error()}
	}
	return challenge, raopBase64.EncodeToString(challenge), nil
}

// SignAppleResponse signs challenge‖localIP‖macAddr (zero-padded to at
// least 32 bytes) under the accessory's RSA private key and returns the
// unpadded-base64 Apple-Response header value, per §4.2.
func SignAppleResponse(priv *rsa.PrivateKey, challenge, localIP, macAddr []byte) (string, error) {
	payload := append(append(append([]byte{}, challenge...), localIP...), macAddr...)
	sig, err := apcrypto.RSASignPKCS1v15SHA1(priv, payload)
	if err != nil {
		return "", &Error{Kind: SignatureVerificationFailed, Msg: err.Error()}
	}
	return raopBase64.EncodeToString(sig), nil
}

// VerifyAppleResponse decodes an Apple-Response header value and verifies
// it against challenge‖localIP‖macAddr under Apple's well-known RSA public
// key, per §4.2.
func VerifyAppleResponse(pub *rsa.PublicKey, challenge, localIP, macAddr []byte, encodedResponse string) error {
	sig, err := raopBase64.DecodeString(encodedResponse)
	if err != nil {
		return &Error{Kind: ProtocolError, Msg: err.Error()}
	}
	payload := append(append(append([]byte{}, challenge...), localIP...), macAddr...)
	if err := apcrypto.RSAVerifyPKCS1v15SHA1(pub, payload, sig); err != nil {
		return &Error{Kind: SignatureVerificationFailed, Msg: err.Error()}
	}
	return nil
}
