package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/url"
	"time"

	"RestaurantSync/internal/config"

	"github.com/sirupsen/logrus"
)

// NewHTTPClient 构建外部接口共用的HTTP客户端（超时、代理、gzip 解压）
func NewHTTPClient(cfg config.HTTPClientConfig, logger *logrus.Logger) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			logger.WithError(err).WithField("proxy", cfg.Proxy).Warn("代理地址解析失败，将不使用代理")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.WithField("proxy", cfg.Proxy).Info("HTTP客户端已配置代理")
		}
	}

	return &http.Client{
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
		Transport: &gzipTransport{next: transport, logger: logger},
	}
}

// gzipTransport 显式声明 Accept-Encoding 后，标准库不再自动解压，这里自行处理
type gzipTransport struct {
	next   http.RoundTripper
	logger *logrus.Logger
}

func (g *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := g.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return resp, nil
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		g.logger.WithError(err).WithField("url", req.URL.Redacted()).Warn("gzip解压失败，返回原始响应")
		return resp, nil
	}
	resp.Body = &gzipReadCloser{Reader: gz, body: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	body io.ReadCloser
}

// Close 先关解压器，再关原始响应体
func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		_ = g.body.Close()
		return err
	}
	return g.body.Close()
}
