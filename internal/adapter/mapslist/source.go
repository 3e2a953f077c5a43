package mapslist

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"RestaurantSync/internal/config"
	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// 响应是多段以 )]}'\n（字面反斜杠 n）分隔的 JS 数据，第三段是列表内容
const (
	chunkSeparator = `)]}'\n`
	listTerminator = `]]"],`
)

// 每个地点形如 [\"/g/xxxx\"],\"名称\",\"... 或 ]],\"名称\",\"...
var namePattern = regexp.MustCompile(`(?:\\"/g/[^\\"]+\\"]|]]),\\"(.*?)\\",\\"`)

var ErrMalformedList = errors.New("malformed google maps list payload")

// Source 抓取公开的 Google Maps 收藏列表，返回餐厅名称
type Source struct {
	cfg        *config.MapsListConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewSource(cfg *config.MapsListConfig, logger *logrus.Logger) *Source {
	return &Source{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg.ClientConfig(), logger),
		logger:     logger,
	}
}

var _ interfaces.NameSource = (*Source)(nil)

func (s *Source) ListNames(ctx context.Context) ([]string, error) {
	if s.cfg.ListID == "" {
		return nil, errors.New("未配置 maps_list.list_id")
	}

	listURL := s.cfg.BaseURL + "/maps/@/data=" + s.cfg.ListID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取收藏列表失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.WithError(err).Warn("关闭收藏列表响应体失败")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("获取收藏列表失败: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取收藏列表失败: %w", err)
	}

	names, err := ExtractNames(string(body))
	if err != nil {
		return nil, err
	}
	s.logger.WithField("count", len(names)).Info("收藏列表获取成功")
	return names, nil
}

// ExtractNames 从列表页原始响应中提取名称，保持出现顺序
func ExtractNames(raw string) ([]string, error) {
	chunks := strings.Split(raw, chunkSeparator)
	if len(chunks) < 3 {
		return nil, fmt.Errorf("%w: 只有%d段数据", ErrMalformedList, len(chunks))
	}

	data := chunks[2]
	if i := strings.Index(data, listTerminator); i >= 0 {
		data = data[:i]
	}
	data = html.UnescapeString(data + "]]")

	matches := namePattern.FindAllStringSubmatch(data, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if name := strings.TrimSpace(m[1]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
