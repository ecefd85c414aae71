// Package keyvault 负责签名私钥的静态加密：PBKDF2 派生密钥 + AES-256-GCM。
package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
)

var vaultLog = logrus.WithField("component", "keyvault")

const (
	// BlobVersion 当前文件格式版本
	BlobVersion = 1
	// KDFName 唯一支持的 KDF
	KDFName = "pbkdf2-sha256"
	// MinIterations PBKDF2 最小迭代次数
	MinIterations = 480_000
	// MinPassphraseLen 口令最小长度
	MinPassphraseLen = 8

	saltLen = 16
	keyLen  = 32
)

var (
	// ErrWrongPassphrase 口令错误或密文被篡改（两者无法区分，均拒绝）
	ErrWrongPassphrase = errors.New("keyvault: wrong passphrase")
	// ErrCorruptBlob 结构损坏：版本/KDF/字段长度不合法
	ErrCorruptBlob = errors.New("keyvault: corrupt blob")
	// ErrWeakPassphrase 口令过短
	ErrWeakPassphrase = errors.New("keyvault: passphrase must be at least 8 characters")
	// ErrEmptyKey 没有可加密的私钥
	ErrEmptyKey = errors.New("keyvault: signing key is empty")
)

// Blob 加密后的私钥文件内容
type Blob struct {
	Version    int    `json:"version"`
	KDF        string `json:"kdf"`
	Iterations int    `json:"iterations"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	CreatedAt  int64  `json:"created_at"`
	Ciphertext []byte `json:"ciphertext"` // ciphertext || GCM tag
}

// Age 距离加密时刻的时长
func (b *Blob) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(b.CreatedAt, 0))
}

// additionalData 头部字段作为 AAD 绑定到密文
func (b *Blob) additionalData() []byte {
	return []byte(fmt.Sprintf("keyvault|v%d|%s|%d|%x|%d", b.Version, b.KDF, b.Iterations, b.Salt, b.CreatedAt))
}

func (b *Blob) validate() error {
	switch {
	case b == nil:
		return errors.Wrap(ErrCorruptBlob, "nil blob")
	case b.Version != BlobVersion:
		return errors.Wrapf(ErrCorruptBlob, "unsupported version %d", b.Version)
	case b.KDF != KDFName:
		return errors.Wrapf(ErrCorruptBlob, "unsupported kdf %q", b.KDF)
	case b.Iterations < MinIterations:
		return errors.Wrapf(ErrCorruptBlob, "iterations %d below minimum", b.Iterations)
	case len(b.Salt) < saltLen:
		return errors.Wrap(ErrCorruptBlob, "salt too short")
	case len(b.Ciphertext) == 0:
		return errors.Wrap(ErrCorruptBlob, "empty ciphertext")
	}
	return nil
}

// Marshal 序列化为 JSON
func (b *Blob) Marshal() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// ParseBlob 解析 JSON，结构非法返回 ErrCorruptBlob
func ParseBlob(data []byte) (*Blob, error) {
	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(ErrCorruptBlob, err.Error())
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ValidatePassphrase 口令强度检查
func ValidatePassphrase(passphrase string) error {
	if len(passphrase) < MinPassphraseLen {
		return ErrWeakPassphrase
	}
	return nil
}

func deriveKey(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keyLen, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal 用口令加密私钥
func Seal(key SigningKey, passphrase string) (*Blob, error) {
	if !key.Valid() {
		return nil, ErrEmptyKey
	}
	if err := ValidatePassphrase(passphrase); err != nil {
		return nil, err
	}

	b := &Blob{
		Version:    BlobVersion,
		KDF:        KDFName,
		Iterations: MinIterations,
		Salt:       make([]byte, saltLen),
		CreatedAt:  time.Now().Unix(),
	}
	if _, err := io.ReadFull(rand.Reader, b.Salt); err != nil {
		return nil, errors.Wrap(err, "keyvault: read salt")
	}

	dk := deriveKey(passphrase, b.Salt, b.Iterations)
	defer wipe(dk)
	gcm, err := newGCM(dk)
	if err != nil {
		return nil, errors.Wrap(err, "keyvault: cipher")
	}
	b.Nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, b.Nonce); err != nil {
		return nil, errors.Wrap(err, "keyvault: read nonce")
	}

	plain := key.bytes()
	defer wipe(plain)
	b.Ciphertext = gcm.Seal(nil, b.Nonce, plain, b.additionalData())
	return b, nil
}

// Unlock 解密私钥。口令错误或密文被篡改返回 ErrWrongPassphrase，绝不返回私钥。
func Unlock(passphrase string, b *Blob) (SigningKey, error) {
	if err := b.validate(); err != nil {
		return SigningKey{}, err
	}

	dk := deriveKey(passphrase, b.Salt, b.Iterations)
	defer wipe(dk)
	gcm, err := newGCM(dk)
	if err != nil {
		return SigningKey{}, errors.Wrap(err, "keyvault: cipher")
	}
	if len(b.Nonce) != gcm.NonceSize() {
		return SigningKey{}, errors.Wrap(ErrCorruptBlob, "bad nonce length")
	}

	plain, err := gcm.Open(nil, b.Nonce, b.Ciphertext, b.additionalData())
	if err != nil {
		return SigningKey{}, ErrWrongPassphrase
	}
	defer wipe(plain)

	pk, err := crypto.ToECDSA(plain)
	if err != nil {
		return SigningKey{}, errors.Wrap(ErrCorruptBlob, "decrypted key is invalid")
	}
	vaultLog.Debugf("私钥已解锁: %s", crypto.PubkeyToAddress(pk.PublicKey).Hex())
	return NewSigningKey(pk), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
