// Package testutil 提供测试辅助工具
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"
)

// RedirectRoundTripper 重写 HTTP 请求到测试服务器
// 用于把知识库后端的真实地址重定向到 mock 服务器
type RedirectRoundTripper struct {
	base *url.URL
	next http.RoundTripper
}

// RoundTrip 实现 http.RoundTripper 接口
func (t *RedirectRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := *req
	u := *req.URL
	u.Scheme = t.base.Scheme
	u.Host = t.base.Host
	cloned.URL = &u
	return t.next.RoundTrip(&cloned)
}

// NewTestClient 创建测试用 HTTP 客户端
// 所有请求重定向到给定的测试服务器
func NewTestClient(ts *httptest.Server) *http.Client {
	return NewTestClientWithTimeout(ts, 5*time.Second)
}

// NewTestClientWithTimeout 创建带超时的测试 HTTP 客户端
func NewTestClientWithTimeout(ts *httptest.Server, timeout time.Duration) *http.Client {
	u, _ := url.Parse(ts.URL)
	return &http.Client{
		Timeout: timeout,
		Transport: &RedirectRoundTripper{
			base: u,
			next: http.DefaultTransport,
		},
	}
}
