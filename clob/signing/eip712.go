package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/betbot/polyclob/clob/types"
)

// ErrKeyUnavailable 私钥未解锁
var ErrKeyUnavailable = errors.New("signing: key unavailable")

// ClobAuthHash 计算 L1 ClobAuth 结构的 EIP712 摘要
func ClobAuthHash(address common.Address, chainID types.Chain, timestamp int64, nonce int64) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    ClobDomainName,
			Version: ClobVersion,
			ChainId: math.NewHexOrDecimal256(int64(chainID)),
		},
		Message: apitypes.TypedDataMessage{
			"address":   address.Hex(),
			"timestamp": fmt.Sprintf("%d", timestamp),
			"nonce":     big.NewInt(nonce),
			"message":   MsgToSign,
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算 ClobAuth 哈希失败: %w", err)
	}
	return hash, nil
}

// BuildClobEip712Signature 构建 L1 认证签名
func BuildClobEip712Signature(privateKey *ecdsa.PrivateKey, chainID types.Chain, timestamp int64, nonce int64) (string, error) {
	if privateKey == nil {
		return "", ErrKeyUnavailable
	}
	hash, err := ClobAuthHash(crypto.PubkeyToAddress(privateKey.PublicKey), chainID, timestamp, nonce)
	if err != nil {
		return "", err
	}
	return SignHash(privateKey, hash)
}

// SignHash 对 32 字节摘要签名，返回 0x + r(32) s(32) v(1)，v 取 27/28
func SignHash(privateKey *ecdsa.PrivateKey, hash []byte) (string, error) {
	sig, err := signRaw(privateKey, hash)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

func signRaw(privateKey *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrKeyUnavailable
	}
	sig, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return nil, fmt.Errorf("签名失败: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

// SignPersonal EIP-191 personal_sign：对 "\x19Ethereum Signed Message:\n32" + hash 签名
func SignPersonal(privateKey *ecdsa.PrivateKey, hash []byte) (string, error) {
	return SignHash(privateKey, accounts.TextHash(hash))
}

// RecoverAddress 从 27/28 形式的签名恢复签名者地址
func RecoverAddress(hash []byte, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("解析签名失败: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("签名长度错误: %d", len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("恢复公钥失败: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
