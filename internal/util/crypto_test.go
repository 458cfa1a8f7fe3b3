package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomBytes(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		bytes, err := CryptoRandomBytes(20)
		require.NoError(t, err)
		assert.Len(t, bytes, 20)
	})

	t.Run("Generate unique values", func(t *testing.T) {
		bytes1, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		bytes2, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		assert.NotEqual(t, bytes1, bytes2, "Random bytes should not be identical")
	})
}

func TestCryptoRandomString(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		for _, length := range []int{6, 20, 32, 33} {
			str, err := CryptoRandomString(length)
			require.NoError(t, err)
			assert.Len(t, str, length)
		}
	})

	t.Run("Generate hex characters only", func(t *testing.T) {
		str, err := CryptoRandomString(32)
		require.NoError(t, err)

		for _, c := range str {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'),
				"Character '%c' is not a valid hex digit", c)
		}
	})

	t.Run("Generate unique values", func(t *testing.T) {
		str1, err := CryptoRandomString(32)
		require.NoError(t, err)
		str2, err := CryptoRandomString(32)
		require.NoError(t, err)
		assert.NotEqual(t, str1, str2)
	})
}
