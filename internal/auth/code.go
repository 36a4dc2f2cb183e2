package auth

import "crypto/rand"

const verificationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// VerificationCodeLength is the length of codes issued at registration.
const VerificationCodeLength = 6

// GenerateVerificationCode returns a random short code used to confirm
// ownership of a registered email address.
func GenerateVerificationCode() (string, error) {
	buf := make([]byte, VerificationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = verificationAlphabet[int(b)%len(verificationAlphabet)]
	}
	return string(buf), nil
}
