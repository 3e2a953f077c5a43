package googleplaces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"RestaurantSync/internal/config"
	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"
	"RestaurantSync/internal/utils/httpclient"
	"RestaurantSync/internal/utils/retry"

	"github.com/sirupsen/logrus"
)

const (
	searchFieldMask = "places.id,places.displayName"
	detailFieldMask = "displayName,formattedAddress,location,googleMapsUri,types,primaryTypeDisplayName," +
		"websiteUri,regularOpeningHours,businessStatus,editorialSummary,priceLevel,rating,servesVegetarianFood"
)

// StatusError Places 返回的非 2xx 响应；429 与 5xx 可重试
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("places api status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client Google Places API (v1)：先 searchText 取 Place ID，再拉详情
type Client struct {
	cfg        *config.PlacesConfig
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *logrus.Logger
}

func NewClient(cfg *config.PlacesConfig, logger *logrus.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Warn("未配置 Google API Key，Places 请求将被拒绝")
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg.ClientConfig(), logger),
		retryCfg:   retry.WithMaxRetries(cfg.RetryCount),
		logger:     logger,
	}
}

var (
	_ interfaces.DetailSource     = (*Client)(nil)
	_ interfaces.PlaceByIDFetcher = (*Client)(nil)
)

// Fetch 按名称查找餐厅并返回详情；无匹配返回 interfaces.ErrPlaceNotFound
func (c *Client) Fetch(ctx context.Context, name string) (*model.PlaceDetail, error) {
	placeID, err := c.SearchID(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.FetchByID(ctx, placeID)
}

// SearchID 文本搜索，取第一个结果的 Place ID
func (c *Client) SearchID(ctx context.Context, name string) (string, error) {
	query := strings.TrimSpace(name)
	if c.cfg.RegionHint != "" {
		query += " " + c.cfg.RegionHint
	}
	body, err := json.Marshal(map[string]string{"textQuery": query})
	if err != nil {
		return "", fmt.Errorf("构建搜索请求失败: %w", err)
	}

	var resp model.SearchTextResponse
	err = retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		resp = model.SearchTextResponse{}
		return c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/places:searchText", searchFieldMask, body, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("搜索餐厅失败(%s): %w", name, err)
	}
	if len(resp.Places) == 0 || resp.Places[0].ID == "" {
		return "", fmt.Errorf("%w: %s", interfaces.ErrPlaceNotFound, name)
	}

	c.logger.WithFields(logrus.Fields{"name": name, "place_id": resp.Places[0].ID}).Debug("Places 搜索命中")
	return resp.Places[0].ID, nil
}

// FetchByID 按 Place ID 拉详情；404 视为未找到
func (c *Client) FetchByID(ctx context.Context, placeID string) (*model.PlaceDetail, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("%w: 空的 place id", interfaces.ErrPlaceNotFound)
	}

	var detail model.PlaceDetail
	err := retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		detail = model.PlaceDetail{}
		return c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/places/"+url.PathEscape(placeID), detailFieldMask, nil, &detail)
	})
	if err != nil {
		return nil, fmt.Errorf("获取餐厅详情失败(%s): %w", placeID, err)
	}
	if detail.ID == "" {
		detail.ID = placeID
	}
	return &detail, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, fieldMask string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	req.Header.Set("Accept-Language", c.cfg.Language)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("关闭Places响应体失败")
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return interfaces.ErrPlaceNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析Places响应失败: %w", err)
	}
	return nil
}
