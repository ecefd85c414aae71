package types

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindAuthFailure 凭证/签名错误，会话级致命，不重试
	KindAuthFailure
	// KindTransientNetwork 连接/超时，在传输层和流层退避重试
	KindTransientNetwork
	// KindRemoteRejection 业务规则拒绝（余额不足、价格过期等），上抛不自动重试
	KindRemoteRejection
	// KindStateCorruption 序列缺口、交叉盘口，触发强制重新同步
	KindStateCorruption
	// KindOutcomeUnknown 提交超时，需要查询对账后才能信任结果
	KindOutcomeUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthFailure:
		return "auth_failure"
	case KindTransientNetwork:
		return "transient_network"
	case KindRemoteRejection:
		return "remote_rejection"
	case KindStateCorruption:
		return "state_corruption"
	case KindOutcomeUnknown:
		return "outcome_unknown"
	default:
		return "unknown"
	}
}

// 分类哨兵，配合 errors.Is 使用
var (
	ErrAuthFailure      = &kindSentinel{KindAuthFailure}
	ErrTransientNetwork = &kindSentinel{KindTransientNetwork}
	ErrRemoteRejection  = &kindSentinel{KindRemoteRejection}
	ErrStateCorruption  = &kindSentinel{KindStateCorruption}
	ErrOutcomeUnknown   = &kindSentinel{KindOutcomeUnknown}
)

type kindSentinel struct{ kind ErrorKind }

func (s *kindSentinel) Error() string { return s.kind.String() }

// Error 带分类的错误
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError 构造分类错误
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf 构造分类错误（格式化消息）
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让 errors.Is(err, ErrAuthFailure) 等按分类匹配
func (e *Error) Is(target error) bool {
	s, ok := target.(*kindSentinel)
	return ok && s.kind == e.Kind
}

// KindOf 返回错误链上第一个分类，未分类返回 KindUnknown
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable 只有瞬时网络错误可以直接重试
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransientNetwork
}

// ClassifyStatus 把非 2xx 的 HTTP 状态映射为分类错误
func ClassifyStatus(op string, status int, msg string) error {
	switch {
	case status == 401 || status == 403:
		return Errorf(KindAuthFailure, op, "HTTP %d: %s", status, msg)
	case status == 429 || status >= 500:
		return Errorf(KindTransientNetwork, op, "HTTP %d: %s", status, msg)
	default:
		return Errorf(KindRemoteRejection, op, "HTTP %d: %s", status, msg)
	}
}
