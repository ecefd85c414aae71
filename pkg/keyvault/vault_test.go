package keyvault

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func mustKey(t *testing.T) SigningKey {
	t.Helper()
	k, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	return k
}

func TestSealUnlockRoundTrip(t *testing.T) {
	key := mustKey(t)

	blob, err := Seal(key, "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, BlobVersion, blob.Version)
	assert.Equal(t, KDFName, blob.KDF)
	assert.GreaterOrEqual(t, blob.Iterations, MinIterations)
	assert.Len(t, blob.Salt, saltLen)
	assert.NotZero(t, blob.CreatedAt)

	got, err := Unlock("correct horse battery", blob)
	require.NoError(t, err)
	assert.Equal(t, key.bytes(), got.bytes())
	assert.Equal(t, key.Address(), got.Address())
}

func TestSealUsesFreshSalt(t *testing.T) {
	key := mustKey(t)
	a, err := Seal(key, "passphrase-1")
	require.NoError(t, err)
	b, err := Seal(key, "passphrase-1")
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestUnlockWrongPassphrase(t *testing.T) {
	blob, err := Seal(mustKey(t), "right-passphrase")
	require.NoError(t, err)

	got, err := Unlock("wrong-passphrase", blob)
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	assert.False(t, got.Valid())
}

func TestUnlockTamperedCiphertext(t *testing.T) {
	blob, err := Seal(mustKey(t), "right-passphrase")
	require.NoError(t, err)
	blob.Ciphertext[0] ^= 0xff

	_, err = Unlock("right-passphrase", blob)
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestUnlockTamperedHeader(t *testing.T) {
	blob, err := Seal(mustKey(t), "right-passphrase")
	require.NoError(t, err)
	blob.CreatedAt++

	_, err = Unlock("right-passphrase", blob)
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestCorruptBlob(t *testing.T) {
	_, err := ParseBlob([]byte("not json"))
	assert.ErrorIs(t, err, ErrCorruptBlob)

	_, err = ParseBlob([]byte(`{"version":2,"kdf":"pbkdf2-sha256","iterations":480000}`))
	assert.ErrorIs(t, err, ErrCorruptBlob)

	blob, err := Seal(mustKey(t), "right-passphrase")
	require.NoError(t, err)
	blob.Iterations = 1000
	_, err = Unlock("right-passphrase", blob)
	assert.ErrorIs(t, err, ErrCorruptBlob)
}

func TestSealRejectsWeakInput(t *testing.T) {
	_, err := Seal(mustKey(t), "short")
	assert.ErrorIs(t, err, ErrWeakPassphrase)

	_, err = Seal(SigningKey{}, "long-enough-pass")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "wallet.enc")
	key := mustKey(t)

	require.NoError(t, SealToFile(path, key, "file-passphrase"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, FileMode, info.Mode().Perm())
	}

	got, err := UnlockFile(path, "file-passphrase")
	require.NoError(t, err)
	assert.Equal(t, key.Address(), got.Address())
}

func TestSaveFileTightensExistingPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions only")
	}
	path := filepath.Join(t.TempDir(), "wallet.enc")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	require.NoError(t, SealToFile(path, mustKey(t), "file-passphrase"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.enc"))
	assert.Error(t, err)
}
