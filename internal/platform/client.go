package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("platform config invalid")
	ErrUnauthorized    = errors.New("platform auth rejected")
	ErrNotFound        = errors.New("platform resource not found")
	ErrRejected        = errors.New("platform request rejected")
	ErrUnavailable     = errors.New("platform unavailable")
	ErrResponseInvalid = errors.New("platform response invalid")
)

// Config 商城平台 API 配置
type Config struct {
	APIBaseURL  string `json:"api_base_url"` // 平台 API 地址，如 https://api.example.com
	ShopDomain  string `json:"shop_domain"`  // 店铺域名
	AccessToken string `json:"access_token"` // API Token
	TimeoutMS   int    `json:"timeout_ms"`   // 请求超时（毫秒）
	SearchLimit int    `json:"search_limit"` // 搜索结果条数上限
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.ShopDomain = strings.TrimSpace(c.ShopDomain)
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 15000
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = 20
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("%w: api_base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ShopDomain) == "" {
		return fmt.Errorf("%w: shop_domain is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	return nil
}

// Client 商城平台 API 客户端
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient 创建平台客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}, nil
}

// SearchLimit 返回配置的搜索条数上限
func (c *Client) SearchLimit() int {
	return c.cfg.SearchLimit
}

// doJSON 发起 JSON 请求并解码响应
// 状态码映射：401/403 → ErrUnauthorized，404 → ErrNotFound，
// 409/422 → ErrRejected（携带平台返回的原因），其余非 2xx → ErrUnavailable
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	endpoint := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("X-Shop-Domain", c.cfg.ShopDomain)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: http status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrRejected, rejectionReason(respBytes))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: http status %d", ErrUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return nil
}

// rejectionReason 提取平台拒绝原因
func rejectionReason(body []byte) string {
	var resp struct {
		Errors  []string `json:"errors"`
		Message string   `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err == nil {
		if len(resp.Errors) > 0 {
			return strings.Join(resp.Errors, "; ")
		}
		if resp.Message != "" {
			return resp.Message
		}
	}
	return "request rejected"
}
