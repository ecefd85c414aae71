package relayer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var erc20ABI = mustABI(`[{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`)

var ctfABI = mustABI(`[{"inputs":[{"name":"collateralToken","type":"address"},{"name":"parentCollectionId","type":"bytes32"},{"name":"conditionId","type":"bytes32"},{"name":"indexSets","type":"uint256[]"}],"name":"redeemPositions","outputs":[],"stateMutability":"nonpayable","type":"function"}]`)

// MaxUint256 无限授权额度
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// BuildApproveTransaction ERC20 approve(spender, amount)
func BuildApproveTransaction(token, spender common.Address, amount *big.Int) (SafeTransaction, error) {
	if amount == nil {
		amount = MaxUint256
	}
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return SafeTransaction{}, err
	}
	return SafeTransaction{To: token, Data: data, Value: big.NewInt(0)}, nil
}

// BuildRedeemTransaction 结算后赎回仓位（indexSets: YES=1, NO=2）
func BuildRedeemTransaction(conditionalTokens, collateral common.Address, conditionID common.Hash, indexSets ...*big.Int) (SafeTransaction, error) {
	if len(indexSets) == 0 {
		indexSets = []*big.Int{big.NewInt(1), big.NewInt(2)}
	}
	data, err := ctfABI.Pack("redeemPositions", collateral, common.Hash{}, conditionID, indexSets)
	if err != nil {
		return SafeTransaction{}, err
	}
	return SafeTransaction{To: conditionalTokens, Data: data, Value: big.NewInt(0)}, nil
}
