package relayer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 交易类型
const (
	TxTypeSafe       = "SAFE"
	TxTypeSafeCreate = "SAFE-CREATE"
)

// 中继交易状态
const (
	StateNew       = "STATE_NEW"
	StateExecuted  = "STATE_EXECUTED"
	StateMined     = "STATE_MINED"
	StateConfirmed = "STATE_CONFIRMED"
	StateInvalid   = "STATE_INVALID"
	StateFailed    = "STATE_FAILED"
)

// SafeTransaction 通过 Safe 执行的单笔调用
type SafeTransaction struct {
	To        common.Address
	Operation uint8 // 0 = Call, 1 = DelegateCall
	Data      []byte
	Value     *big.Int
}

// TransactionRequest POST /submit 请求体
type TransactionRequest struct {
	Type            string           `json:"type"`
	From            string           `json:"from"`
	To              string           `json:"to"`
	ProxyWallet     string           `json:"proxyWallet,omitempty"`
	Data            string           `json:"data"`
	Nonce           string           `json:"nonce,omitempty"`
	Signature       string           `json:"signature"`
	SignatureParams *SignatureParams `json:"signatureParams"`
	Metadata        string           `json:"metadata,omitempty"`
}

// SignatureParams Safe 交易参数（gas 由中继支付，全部为 0）
type SignatureParams struct {
	GasPrice        string `json:"gasPrice,omitempty"`
	Operation       string `json:"operation,omitempty"`
	SafeTxnGas      string `json:"safeTxnGas,omitempty"`
	BaseGas         string `json:"baseGas,omitempty"`
	GasToken        string `json:"gasToken,omitempty"`
	RefundReceiver  string `json:"refundReceiver,omitempty"`
	PaymentToken    string `json:"paymentToken,omitempty"`
	Payment         string `json:"payment,omitempty"`
	PaymentReceiver string `json:"paymentReceiver,omitempty"`
}

// SubmitResponse POST /submit 响应
type SubmitResponse struct {
	TransactionID   string `json:"transactionID"`
	TransactionHash string `json:"transactionHash"`
	State           string `json:"state"`
}

// Transaction GET /transaction 返回的交易记录
type Transaction struct {
	TransactionID   string `json:"transactionID"`
	TransactionHash string `json:"transactionHash"`
	From            string `json:"from"`
	To              string `json:"to"`
	ProxyAddress    string `json:"proxyAddress"`
	Data            string `json:"data"`
	Nonce           string `json:"nonce"`
	State           string `json:"state"`
	Type            string `json:"type"`
	Metadata        string `json:"metadata"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// Final 是否已到终态
func (t *Transaction) Final() bool {
	switch t.State {
	case StateMined, StateConfirmed, StateFailed, StateInvalid:
		return true
	}
	return false
}

// Succeeded 是否成功上链
func (t *Transaction) Succeeded() bool {
	return t.State == StateMined || t.State == StateConfirmed
}

type nonceResponse struct {
	Nonce string `json:"nonce"`
}

type deployedResponse struct {
	Deployed bool `json:"deployed"`
}
