package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/betbot/polyclob/clob/types"
)

// decodeSecret 解码 base64url 格式的 secret，容忍有无 padding
func decodeSecret(secret string) ([]byte, error) {
	s := strings.ReplaceAll(secret, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	key, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "解码 secret 失败")
	}
	return key, nil
}

// BuildPolyHmacSignature 计算 HMAC-SHA256(secret, timestamp+method+path+body)，
// 输出 URL 安全的 base64（保留 = 后缀）
func BuildPolyHmacSignature(secret string, timestamp int64, method, requestPath string, body []byte) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte(method))
	mac.Write([]byte(requestPath))
	mac.Write(body)
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// HMACAuthenticator 交易 API（L2）认证
type HMACAuthenticator struct {
	address string
	creds   types.ApiKeyCreds
	clock   clockPolicy
}

var _ Authenticator = (*HMACAuthenticator)(nil)

// NewHMACAuthenticator 创建 L2 认证器，address 为 API 密钥所属的签名地址
func NewHMACAuthenticator(address common.Address, creds *types.ApiKeyCreds, opts ...Option) (*HMACAuthenticator, error) {
	if !creds.Valid() {
		return nil, ErrMissingCredentials
	}
	if _, err := decodeSecret(creds.Secret); err != nil {
		return nil, err
	}
	return &HMACAuthenticator{
		address: address.Hex(),
		creds:   *creds,
		clock:   newClockPolicy(opts),
	}, nil
}

func (a *HMACAuthenticator) Scheme() Scheme { return SchemeHMAC }

// APIKey 当前使用的 API key
func (a *HMACAuthenticator) APIKey() string { return a.creds.Key }

func (a *HMACAuthenticator) BuildHeaders(method, path string, body []byte, timestamp int64) (http.Header, error) {
	ts, err := a.clock.resolve(timestamp)
	if err != nil {
		return nil, err
	}
	sig, err := BuildPolyHmacSignature(a.creds.Secret, ts, method, path, body)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set(types.HeaderPolyAddress, a.address)
	h.Set(types.HeaderPolySignature, sig)
	h.Set(types.HeaderPolyTimestamp, strconv.FormatInt(ts, 10))
	h.Set(types.HeaderPolyAPIKey, a.creds.Key)
	h.Set(types.HeaderPolyPassphrase, a.creds.Passphrase)
	return h, nil
}
