package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		assert.Len(t, code, VerificationCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(verificationAlphabet, r), "unexpected character %q", r)
		}
		seen[code] = true
	}
	// 50 draws from a 62^6 space should not collide into a single value
	assert.Greater(t, len(seen), 1)
}
