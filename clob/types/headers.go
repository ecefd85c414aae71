package types

// 认证头名称
const (
	HeaderPolyAddress       = "POLY_ADDRESS"
	HeaderPolySignature     = "POLY_SIGNATURE"
	HeaderPolyTimestamp     = "POLY_TIMESTAMP"
	HeaderPolyNonce         = "POLY_NONCE"
	HeaderPolyAPIKey        = "POLY_API_KEY"
	HeaderPolyPassphrase    = "POLY_PASSPHRASE"
	HeaderPolySignatureType = "POLY_SIGNATURE_TYPE"

	HeaderBuilderAPIKey     = "POLY_BUILDER_API_KEY"
	HeaderBuilderPassphrase = "POLY_BUILDER_PASSPHRASE"
	HeaderBuilderSignature  = "POLY_BUILDER_SIGNATURE"
	HeaderBuilderTimestamp  = "POLY_BUILDER_TIMESTAMP"
)

// L1PolyHeader L1 认证头（EIP712 签名验证）
type L1PolyHeader struct {
	PolyAddress   string `json:"POLY_ADDRESS"`
	PolySignature string `json:"POLY_SIGNATURE"`
	PolyTimestamp string `json:"POLY_TIMESTAMP"`
	PolyNonce     string `json:"POLY_NONCE"`
}

// Map 转换为 header map
func (h *L1PolyHeader) Map() map[string]string {
	return map[string]string{
		HeaderPolyAddress:   h.PolyAddress,
		HeaderPolySignature: h.PolySignature,
		HeaderPolyTimestamp: h.PolyTimestamp,
		HeaderPolyNonce:     h.PolyNonce,
	}
}

// BuilderCreds Builder API 凭证（中继服务使用）
type BuilderCreds struct {
	Key        string
	Secret     string
	Passphrase string
}

// Valid 三项都存在才会注入 builder 头
func (c *BuilderCreds) Valid() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}
