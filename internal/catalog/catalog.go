package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Track 是对外输出的曲目数据。
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	PreviewURL string `json:"preview_url"`
}

type entry struct {
	tracks  []Track
	expires time.Time
}

// Client 是第三方曲库 API 的读穿 TTL 缓存客户端，
// 同一查询在 TTL 内只打一次外部请求。
type Client struct {
	base string
	ttl  time.Duration
	http *http.Client

	mu    sync.Mutex
	cache map[string]entry
	now   func() time.Time
}

func New(baseURL string, ttl time.Duration) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		ttl:   ttl,
		http:  &http.Client{Timeout: 10 * time.Second},
		cache: make(map[string]entry),
		now:   time.Now,
	}
}

// Search 按关键词搜索曲目，优先命中缓存。
func (c *Client) Search(ctx context.Context, query string) ([]Track, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil, nil
	}

	c.mu.Lock()
	if e, ok := c.cache[key]; ok && c.now().Before(e.expires) {
		out := make([]Track, len(e.tracks))
		copy(out, e.tracks)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	tracks, err := c.fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = entry{tracks: tracks, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	out := make([]Track, len(tracks))
	copy(out, tracks)
	return out, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]Track, error) {
	u := fmt.Sprintf("%s/search?q=%s", c.base, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID      json.Number `json:"id"`
			Title   string      `json:"title"`
			Preview string      `json:"preview"`
			Artist  struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(body.Data))
	for _, d := range body.Data {
		tracks = append(tracks, Track{
			ID:         d.ID.String(),
			Title:      d.Title,
			Artist:     d.Artist.Name,
			PreviewURL: d.Preview,
		})
	}
	return tracks, nil
}
