// Package client 广告服务的 HTTP 客户端
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adwall/internal/formschema"
	"adwall/internal/model"
)

// APIError 服务端返回的业务错误
type APIError struct {
	Status int
	Code   int
	Msg    string
	Errors []string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (code=%d): %s", e.Msg, e.Code, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("%s (code=%d)", e.Msg, e.Code)
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// envelope 统一响应结构
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Client 广告服务客户端
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient 创建客户端，baseURL 形如 http://127.0.0.1:3000
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ListAds 按排序获取一页广告
func (c *Client) ListAds(ctx context.Context, page, size int) (*model.AdPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var out model.AdPage
	if err := c.do(ctx, http.MethodGet, "/api/ads?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAd 创建广告
func (c *Client) CreateAd(ctx context.Context, body map[string]interface{}) (*model.Ad, error) {
	return c.adRequest(ctx, http.MethodPost, "/api/ads", body)
}

// UpdateAd 部分更新广告，heat 会被服务端忽略
func (c *Client) UpdateAd(ctx context.Context, id string, patch map[string]interface{}) (*model.Ad, error) {
	return c.adRequest(ctx, http.MethodPut, "/api/ads/"+url.PathEscape(id), patch)
}

// IncrementHeat 热度加一
func (c *Client) IncrementHeat(ctx context.Context, id string) (*model.Ad, error) {
	return c.adRequest(ctx, http.MethodPost, "/api/ads/"+url.PathEscape(id)+"/increment-heat", nil)
}

// CopyAd 复制广告，新广告热度为 0
func (c *Client) CopyAd(ctx context.Context, id string) (*model.Ad, error) {
	return c.adRequest(ctx, http.MethodPost, "/api/ads/"+url.PathEscape(id)+"/copy", nil)
}

// DeleteAd 删除广告
func (c *Client) DeleteAd(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/ads/"+url.PathEscape(id), nil, nil)
}

// ListAdTypes 获取广告类型
func (c *Client) ListAdTypes(ctx context.Context) ([]*model.AdType, error) {
	var out []*model.AdType
	if err := c.do(ctx, http.MethodGet, "/api/ad-types", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FormConfig 获取广告类型的表单配置，configKey 为空时使用默认配置键
func (c *Client) FormConfig(ctx context.Context, typeCode, configKey string) (formschema.Schema, error) {
	if configKey == "" {
		configKey = formschema.DefaultConfigKey
	}
	q := url.Values{}
	q.Set("type_code", typeCode)
	q.Set("config_key", configKey)
	var out formschema.Schema
	if err := c.do(ctx, http.MethodGet, "/api/form-config?"+q.Encode(), nil, &out); err != nil {
		return formschema.Schema{}, err
	}
	return out, nil
}

// Login 管理员登录，成功后后续请求自动携带令牌
func (c *Client) Login(ctx context.Context, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", map[string]string{"password": password}, &out); err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

func (c *Client) adRequest(ctx context.Context, method, path string, body interface{}) (*model.Ad, error) {
	var out *model.Ad
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求失败: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("解析响应失败 (status=%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Msg: env.Msg}
		var detail struct {
			Errors []string `json:"errors"`
		}
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &detail) == nil {
			apiErr.Errors = detail.Errors
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
