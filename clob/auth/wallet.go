package auth

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/keyvault"
)

// WalletAuthenticator 中继 API 认证：钱包对请求做 EIP-191 签名，
// 配置了 builder 凭证时附带 builder HMAC 头
type WalletAuthenticator struct {
	key     keyvault.SigningKey
	sigType types.SignatureType
	builder *types.BuilderCreds
	clock   clockPolicy
}

var _ Authenticator = (*WalletAuthenticator)(nil)

// NewWalletAuthenticator 创建中继认证器，builder 可为 nil
func NewWalletAuthenticator(key keyvault.SigningKey, sigType types.SignatureType, builder *types.BuilderCreds, opts ...Option) (*WalletAuthenticator, error) {
	if !key.Valid() {
		return nil, signing.ErrKeyUnavailable
	}
	if builder != nil && !builder.Valid() {
		builder = nil
	}
	return &WalletAuthenticator{
		key:     key,
		sigType: sigType,
		builder: builder,
		clock:   newClockPolicy(opts),
	}, nil
}

func (a *WalletAuthenticator) Scheme() Scheme { return SchemeWallet }

// HasBuilder 是否附带 builder 头
func (a *WalletAuthenticator) HasBuilder() bool { return a.builder != nil }

// RequestDigest keccak256(timestamp + method + path + body)
func RequestDigest(timestamp int64, method, path string, body []byte) []byte {
	return crypto.Keccak256([]byte(strconv.FormatInt(timestamp, 10)), []byte(method), []byte(path), body)
}

func (a *WalletAuthenticator) BuildHeaders(method, path string, body []byte, timestamp int64) (http.Header, error) {
	ts, err := a.clock.resolve(timestamp)
	if err != nil {
		return nil, err
	}
	sig, err := signing.SignPersonal(a.key.PrivateKey(), RequestDigest(ts, method, path, body))
	if err != nil {
		return nil, err
	}
	tsStr := strconv.FormatInt(ts, 10)

	h := http.Header{}
	h.Set(types.HeaderPolyAddress, a.key.Address().Hex())
	h.Set(types.HeaderPolySignature, sig)
	h.Set(types.HeaderPolyTimestamp, tsStr)
	h.Set(types.HeaderPolySignatureType, strconv.Itoa(int(a.sigType)))

	if a.builder != nil {
		bsig, err := BuildPolyHmacSignature(a.builder.Secret, ts, method, path, body)
		if err != nil {
			return nil, err
		}
		h.Set(types.HeaderBuilderAPIKey, a.builder.Key)
		h.Set(types.HeaderBuilderPassphrase, a.builder.Passphrase)
		h.Set(types.HeaderBuilderSignature, bsig)
		h.Set(types.HeaderBuilderTimestamp, tsStr)
	}
	return h, nil
}
