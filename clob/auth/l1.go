package auth

import (
	"strconv"
	"time"

	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/pkg/keyvault"
)

// L1Headers 创建/派生 API 密钥用的 L1 认证头（ClobAuth EIP712 签名）。
// timestamp 为 0 时取当前时间。
func L1Headers(key keyvault.SigningKey, chainID types.Chain, nonce int64, timestamp int64) (*types.L1PolyHeader, error) {
	if !key.Valid() {
		return nil, signing.ErrKeyUnavailable
	}
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}
	sig, err := signing.BuildClobEip712Signature(key.PrivateKey(), chainID, timestamp, nonce)
	if err != nil {
		return nil, err
	}
	return &types.L1PolyHeader{
		PolyAddress:   key.Address().Hex(),
		PolySignature: sig,
		PolyTimestamp: strconv.FormatInt(timestamp, 10),
		PolyNonce:     strconv.FormatInt(nonce, 10),
	}, nil
}
