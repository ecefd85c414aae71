package keyvault

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrivateKey(t *testing.T) {
	raw := strings.TrimPrefix(testKeyHex, "0x")

	got, err := NormalizePrivateKey(raw)
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	got, err = NormalizePrivateKey(strings.ToUpper(testKeyHex[2:]))
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	for _, bad := range []string{"", "0x1234", "0x" + strings.Repeat("z", 64), raw + "00"} {
		_, err := NormalizePrivateKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKeyFormat, bad)
	}
}

func TestParsePrivateKeyAddress(t *testing.T) {
	k := mustKey(t)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", k.Address().Hex())
}

func TestSigningKeyNeverPrintsSecret(t *testing.T) {
	k := mustKey(t)
	secret := strings.TrimPrefix(testKeyHex, "0x")
	assert.NotContains(t, k.String(), secret)
	assert.NotContains(t, fmt.Sprintf("%v %+v %#v", k, k, k), secret)
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)
	assert.True(t, a.Valid())
	assert.NotEqual(t, a.Address(), b.Address())
}

func TestFromMnemonic(t *testing.T) {
	k, err := FromMnemonic("test test test test test test test test test test test junk", "")
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", k.Address().Hex())

	_, err = FromMnemonic("", "")
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	k, err := GenerateKey()
	require.NoError(t, err)
	k.Zero()
	assert.False(t, k.Valid())
}
