package client

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/polyclob/clob/types"
)

// authLevel 请求所需认证级别
type authLevel int

const (
	authNone authLevel = iota
	authL1
	authL2
)

// request 单次 API 调用
type request struct {
	op     string
	route  string
	method string
	path   string
	query  map[string]string
	body   any
	auth   authLevel
	// l1Nonce 仅 L1 请求使用
	l1Nonce int64
	// submit 为下单请求：超时意味着结果未知
	submit bool
}

// do 执行请求并把 2xx 响应解析到 out。
// 认证头基于实际发送的 body 字节计算。
func (c *Client) do(ctx context.Context, r request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.limiter.Wait(ctx, r.route); err != nil {
		return types.NewError(types.KindTransientNetwork, r.op, errors.Wrap(err, "速率限制等待失败"))
	}

	var bodyBytes []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrapf(err, "%s: 序列化请求体失败", r.op)
		}
		bodyBytes = b
	}

	req := c.http.R().SetContext(ctx)
	if r.query != nil {
		req.SetQueryParams(r.query)
	}
	if bodyBytes != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(bodyBytes)
	}

	switch r.auth {
	case authL2:
		l2, err := c.l2Auth()
		if err != nil {
			return err
		}
		h, err := l2.BuildHeaders(r.method, r.path, bodyBytes, 0)
		if err != nil {
			return types.NewError(types.KindAuthFailure, r.op, err)
		}
		for k := range h {
			req.SetHeader(k, h.Get(k))
		}
	case authL1:
		h, err := c.l1Headers(r.l1Nonce)
		if err != nil {
			return types.NewError(types.KindAuthFailure, r.op, err)
		}
		req.SetHeaders(h.Map())
	}

	start := time.Now()
	resp, err := req.Execute(r.method, r.path)
	if err != nil {
		return classifyTransport(r, err)
	}
	clobLog.Debugf("%s %s -> %d (%s)", r.method, r.path, resp.StatusCode(), time.Since(start))

	if !resp.IsSuccess() {
		return types.ClassifyStatus(r.op, resp.StatusCode(), errorMessage(resp.Body()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "%s: 解析响应失败: %s", r.op, truncate(resp.Body(), 256))
	}
	return nil
}

// classifyTransport 传输层错误：下单超时视为结果未知，其余为瞬时网络错误
func classifyTransport(r request, err error) error {
	if r.submit && isTimeout(err) {
		return types.NewError(types.KindOutcomeUnknown, r.op, err)
	}
	return types.NewError(types.KindTransientNetwork, r.op, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// apiError 错误响应体
type apiError struct {
	Error    string `json:"error"`
	ErrorMsg string `json:"errorMsg"`
	Message  string `json:"message"`
}

func errorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.ErrorMsg, e.Error, e.Message} {
			if m != "" {
				return m
			}
		}
	}
	return truncate(body, 512)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// shouldRetry POST 不重试，避免重复提交；其它请求在传输错误、429、5xx 时重试
func shouldRetry(resp *resty.Response, err error) bool {
	if resp != nil && resp.Request != nil && resp.Request.Method == http.MethodPost {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

// retryAfter 429 时遵守 Retry-After 头
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
		return 0, nil
	}
	if v := strings.TrimSpace(resp.Header().Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second, nil
		}
	}
	return 2 * time.Second, nil
}
