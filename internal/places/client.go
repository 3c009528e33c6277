// 包 places：外部地点目录（Foursquare Places 搜索）的只读客户端
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"density-api/internal/logger"
	"density-api/internal/metrics"
)

const (
	DefaultBaseURL    = "https://places-api.foursquare.com/places/search"
	DefaultAPIVersion = "2025-06-17"
	DefaultRadius     = "800"
	DefaultCategories = "16032,19000,12000,18000"
	searchLimit       = "30"
)

var (
	ErrNotConfigured = errors.New("place catalog key not configured")
	ErrUpstream      = errors.New("place catalog upstream error")
)

// 文档注释：归一化后的地点
// 背景：上游新旧版本字段名不同（fsq_place_id/fsq_id、latitude/geocodes.main.latitude），统一为地图与批量评分直接使用的结构。
type Place struct {
	ID       string   `json:"fsq_id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Category string   `json:"category,omitempty"`
	Address  string   `json:"address,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

type SearchParams struct {
	Lat        float64
	Lng        float64
	Radius     string
	Categories string
}

// 文档注释：地点目录客户端
// 约束：密钥只在服务端使用；客户端为空时使用 5s 超时的默认客户端；不做结果缓存。
type Client struct {
	baseURL    string
	key        string
	apiVersion string
	http       *http.Client
}

func New(baseURL, key, apiVersion string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, key: strings.TrimSpace(key), apiVersion: apiVersion, http: client}
}

// NewFromEnv：FSQ_SERVICE_KEY 优先，兼容 FOURSQUARE_SERVICE_KEY；版本取 FOURSQUARE_API_VERSION
func NewFromEnv() *Client {
	key := os.Getenv("FSQ_SERVICE_KEY")
	if key == "" {
		key = os.Getenv("FOURSQUARE_SERVICE_KEY")
	}
	return New(os.Getenv("FSQ_BASE_URL"), key, strings.TrimSpace(os.Getenv("FOURSQUARE_API_VERSION")), nil)
}

func (c *Client) Configured() bool { return c != nil && c.key != "" }

type rawPlace struct {
	FsqPlaceID string   `json:"fsq_place_id"`
	FsqID      string   `json:"fsq_id"`
	Name       string   `json:"name"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Geocodes   struct {
		Main struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Distance *float64 `json:"distance"`
}

// 文档注释：按坐标搜索附近地点
// 返回：归一化地点列表；缺少 ID 或坐标的条目被跳过。未配置密钥返回 ErrNotConfigured，上游非 2xx 返回包装 ErrUpstream 的错误。
func (c *Client) Search(ctx context.Context, sp SearchParams) ([]Place, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%.6f,%.6f", sp.Lat, sp.Lng))
	radius := sp.Radius
	if radius == "" {
		radius = DefaultRadius
	}
	q.Set("radius", radius)
	q.Set("limit", searchLimit)
	if sp.Categories != "" {
		q.Set("categories", sp.Categories)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Places-Api-Version", c.apiVersion)

	t0 := time.Now()
	metrics.PlacesRequestsTotal.Inc()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PlacesFailTotal.Inc()
		logger.L().Error("places_http_error", "err", err)
		return nil, err
	}
	defer resp.Body.Close()
	metrics.PlacesDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.PlacesFailTotal.Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logger.L().Error("places_upstream_status", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	var payload struct {
		Results []rawPlace `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.PlacesFailTotal.Inc()
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	out := make([]Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		if p, ok := normalize(r); ok {
			out = append(out, p)
		}
	}
	logger.L().Debug("places_search", "lat", sp.Lat, "lng", sp.Lng, "radius", radius, "results", len(out), "duration_ms", time.Since(t0).Milliseconds())
	return out, nil
}

func normalize(r rawPlace) (Place, bool) {
	id := r.FsqPlaceID
	if id == "" {
		id = r.FsqID
	}
	lat, lng := r.Latitude, r.Longitude
	if lat == nil || lng == nil {
		lat, lng = r.Geocodes.Main.Latitude, r.Geocodes.Main.Longitude
	}
	if id == "" || lat == nil || lng == nil {
		return Place{}, false
	}
	p := Place{ID: id, Name: r.Name, Lat: *lat, Lng: *lng, Address: r.Location.FormattedAddress, Distance: r.Distance}
	if len(r.Categories) > 0 {
		p.Category = r.Categories[0].Name
	}
	return p, true
}
