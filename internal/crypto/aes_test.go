package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptRoundTrip(t *testing.T) {
	req := require.New(t)
	key := []byte("0123456789abcdef0123456789abcdef")
	iv := []byte("fedcba9876543210")

	sealed, err := EncryptToBase64([]byte(`{"title":"New message"}`), key, iv)
	req.NoError(err)
	plain, err := DecryptFromBase64(sealed, key, iv)
	req.NoError(err)
	req.Equal(`{"title":"New message"}`, string(plain))
}

func TestCheckKey(t *testing.T) {
	req := require.New(t)
	req.ErrorIs(CheckKey([]byte("short"), make([]byte, 16)), ErrKeySize)
	req.ErrorIs(CheckKey(make([]byte, 16), []byte("short")), ErrIVSize)
	req.NoError(CheckKey(make([]byte, 24), make([]byte, 16)))
}

func TestGenerateString(t *testing.T) {
	req := require.New(t)
	a, err := GenerateString(32)
	req.NoError(err)
	req.Len(a, 32)
	b, err := GenerateString(32)
	req.NoError(err)
	req.NotEqual(a, b)

	_, err = GenerateString(0)
	req.Error(err)
}
