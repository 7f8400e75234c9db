package cryptox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer([]byte("master"))
	require.NoError(t, err)

	sealed, err := s.Seal("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", sealed)

	again, err := s.Seal("hunter2")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "hunter2", plain)
}

func TestSealerEmpty(t *testing.T) {
	s, err := NewSealer([]byte("master"))
	require.NoError(t, err)

	sealed, err := s.Seal("")
	require.NoError(t, err)
	require.Empty(t, sealed)

	plain, err := s.Open("")
	require.NoError(t, err)
	require.Empty(t, plain)
}

func TestSealerWrongKey(t *testing.T) {
	a, err := NewSealer([]byte("key-a"))
	require.NoError(t, err)
	b, err := NewSealer([]byte("key-b"))
	require.NoError(t, err)

	sealed, err := a.Seal("secret")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	require.Error(t, err)
}

func TestSealerMalformed(t *testing.T) {
	s, err := NewSealer([]byte("master"))
	require.NoError(t, err)

	_, err = s.Open("***")
	require.ErrorIs(t, err, ErrCiphertext)

	_, err = s.Open("AAAA")
	require.ErrorIs(t, err, ErrCiphertext)

	_, err = NewSealer(nil)
	require.Error(t, err)
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
