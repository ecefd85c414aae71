package relayer

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Polygon 上的 Safe 相关合约
const (
	SafeFactoryAddr = "0xaacFeEa03eb1561C4e67d661e40682Bd20E3541b"
	MultiSendAddr   = "0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761"
)

// safeInitCodeHash Safe 代理的 init code 哈希（CREATE2）
var safeInitCodeHash = common.HexToHash("0x2bce2127ff07fb632d16c8347c4ebf501f4841168bed00d9e6ef715ddb6fcecf")

var multiSendABI = mustABI(`[{"inputs":[{"internalType":"bytes","name":"transactions","type":"bytes"}],"name":"multiSend","outputs":[],"stateMutability":"payable","type":"function"}]`)

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// DeriveSafeAddress 由签名地址推导 Safe 代理钱包地址
func DeriveSafeAddress(signer common.Address, factory common.Address) common.Address {
	salt := crypto.Keccak256Hash(common.LeftPadBytes(signer.Bytes(), 32))
	return crypto.CreateAddress2(factory, salt, safeInitCodeHash.Bytes())
}

// packMultiSend 按 MultiSend 格式打包：operation(1) + to(20) + value(32) + len(32) + data
func packMultiSend(txns []SafeTransaction) []byte {
	var packed []byte
	for _, tx := range txns {
		value := tx.Value
		if value == nil {
			value = big.NewInt(0)
		}
		packed = append(packed, tx.Operation)
		packed = append(packed, tx.To.Bytes()...)
		packed = append(packed, common.LeftPadBytes(value.Bytes(), 32)...)
		packed = append(packed, common.LeftPadBytes(big.NewInt(int64(len(tx.Data))).Bytes(), 32)...)
		packed = append(packed, tx.Data...)
	}
	return packed
}

// aggregate 单笔直接调用；多笔包装为 MultiSend 的 DelegateCall
func aggregate(txns []SafeTransaction) (SafeTransaction, error) {
	if len(txns) == 1 {
		return txns[0], nil
	}
	data, err := multiSendABI.Pack("multiSend", packMultiSend(txns))
	if err != nil {
		return SafeTransaction{}, err
	}
	return SafeTransaction{
		To:        common.HexToAddress(MultiSendAddr),
		Operation: 1,
		Data:      data,
		Value:     big.NewInt(0),
	}, nil
}
