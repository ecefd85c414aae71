package signing

import (
	"crypto/rand"
	"math/big"
)

// saltBound 订单 salt 以 JSON 数字提交，限制在 2^53 内保证精度
var saltBound = new(big.Int).Lsh(big.NewInt(1), 53)

// NewSalt 生成单次使用的随机 salt
func NewSalt() (int64, error) {
	n, err := rand.Int(rand.Reader, saltBound)
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
