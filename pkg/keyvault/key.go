package keyvault

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"
)

// DefaultDerivationPath 以太坊默认派生路径
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// ErrInvalidKeyFormat 私钥格式错误（需要 64 个十六进制字符，可带 0x）
var ErrInvalidKeyFormat = errors.New("keyvault: invalid private key format")

// SigningKey 账户签名私钥。
// 只在签名时短暂持有，String/GoString 不会输出私钥。
type SigningKey struct {
	pk *ecdsa.PrivateKey
}

// NewSigningKey 包装已有私钥
func NewSigningKey(pk *ecdsa.PrivateKey) SigningKey {
	return SigningKey{pk: pk}
}

// Valid 私钥是否可用
func (k SigningKey) Valid() bool {
	return k.pk != nil && k.pk.D != nil && k.pk.D.Sign() > 0
}

// PrivateKey 返回底层私钥，供签名使用
func (k SigningKey) PrivateKey() *ecdsa.PrivateKey {
	return k.pk
}

// Address EOA 地址
func (k SigningKey) Address() common.Address {
	if k.pk == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(k.pk.PublicKey)
}

// Zero 清除私钥标量
func (k SigningKey) Zero() {
	if k.pk != nil && k.pk.D != nil {
		k.pk.D.SetInt64(0)
	}
}

func (k SigningKey) String() string {
	if !k.Valid() {
		return "SigningKey(<empty>)"
	}
	return fmt.Sprintf("SigningKey(%s, <redacted>)", k.Address().Hex())
}

func (k SigningKey) GoString() string { return k.String() }

// bytes 32 字节原始私钥
func (k SigningKey) bytes() []byte {
	return crypto.FromECDSA(k.pk)
}

// NormalizePrivateKey 校验并规范化私钥：小写、带 0x 前缀、64 个十六进制字符
func NormalizePrivateKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidKeyFormat
	}
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 64 {
		return "", ErrInvalidKeyFormat
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", ErrInvalidKeyFormat
	}
	return "0x" + strings.ToLower(raw), nil
}

// ParsePrivateKey 从十六进制字符串解析私钥
func ParsePrivateKey(s string) (SigningKey, error) {
	norm, err := NormalizePrivateKey(s)
	if err != nil {
		return SigningKey{}, err
	}
	pk, err := crypto.HexToECDSA(norm[2:])
	if err != nil {
		return SigningKey{}, errors.Wrap(ErrInvalidKeyFormat, err.Error())
	}
	return NewSigningKey(pk), nil
}

// GenerateKey 生成随机私钥
func GenerateKey() (SigningKey, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return SigningKey{}, errors.Wrap(err, "keyvault: generate key")
	}
	return NewSigningKey(pk), nil
}

// FromMnemonic 从助记词派生私钥，path 为空时使用 DefaultDerivationPath
func FromMnemonic(mnemonic, path string) (SigningKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return SigningKey{}, errors.New("keyvault: mnemonic is required")
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultDerivationPath
	}
	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return SigningKey{}, errors.Wrap(err, "keyvault: invalid mnemonic")
	}
	dp, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return SigningKey{}, errors.Wrap(err, "keyvault: invalid derivation path")
	}
	acct, err := w.Derive(dp, false)
	if err != nil {
		return SigningKey{}, errors.Wrap(err, "keyvault: derive")
	}
	pk, err := w.PrivateKey(acct)
	if err != nil {
		return SigningKey{}, errors.Wrap(err, "keyvault: private key")
	}
	return NewSigningKey(pk), nil
}
