package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/polyclob/clob/types"
)

// SafeTx Gnosis Safe 交易（gas 相关字段由中继方支付，固定为 0）
type SafeTx struct {
	To        common.Address
	Value     *big.Int
	Data      []byte
	Operation uint8 // 0 = Call, 1 = DelegateCall
	Nonce     *big.Int
}

// SafeTxHash 计算 SafeTx 的 EIP712 摘要
func SafeTxHash(chainID types.Chain, safe common.Address, tx SafeTx) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"SafeTx": {
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "data", Type: "bytes"},
				{Name: "operation", Type: "uint8"},
				{Name: "safeTxGas", Type: "uint256"},
				{Name: "baseGas", Type: "uint256"},
				{Name: "gasPrice", Type: "uint256"},
				{Name: "gasToken", Type: "address"},
				{Name: "refundReceiver", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "SafeTx",
		Domain: apitypes.TypedDataDomain{
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: safe.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"to":             tx.To.Hex(),
			"value":          orEmpty(tx.Value).String(),
			"data":           tx.Data,
			"operation":      fmt.Sprintf("%d", tx.Operation),
			"safeTxGas":      "0",
			"baseGas":        "0",
			"gasPrice":       "0",
			"gasToken":       types.ZeroAddress,
			"refundReceiver": types.ZeroAddress,
			"nonce":          orEmpty(tx.Nonce).String(),
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算 SafeTx 哈希失败: %w", err)
	}
	return hash, nil
}

// SignSafeTx 对 SafeTx 签名（r + s + v，v 为 27/28）
func SignSafeTx(privateKey *ecdsa.PrivateKey, chainID types.Chain, safe common.Address, tx SafeTx) (string, error) {
	hash, err := SafeTxHash(chainID, safe, tx)
	if err != nil {
		return "", err
	}
	return SignHash(privateKey, hash)
}

// SafeFactoryDomainName Safe 代理工厂签名域
const SafeFactoryDomainName = "Polymarket Contract Proxy Factory"

// CreateProxyHash 部署 Safe 时对 CreateProxy 结构的 EIP712 摘要（无支付）
func CreateProxyHash(chainID types.Chain, factory common.Address) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"CreateProxy": {
				{Name: "paymentToken", Type: "address"},
				{Name: "payment", Type: "uint256"},
				{Name: "paymentReceiver", Type: "address"},
			},
		},
		PrimaryType: "CreateProxy",
		Domain: apitypes.TypedDataDomain{
			Name:              SafeFactoryDomainName,
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: factory.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"paymentToken":    types.ZeroAddress,
			"payment":         "0",
			"paymentReceiver": types.ZeroAddress,
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("计算 CreateProxy 哈希失败: %w", err)
	}
	return hash, nil
}
