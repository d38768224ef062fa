package docs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultBaseURL 是 docs.rs 官方站点地址，可在测试中替换为 stub 服务。
const DefaultBaseURL = "https://docs.rs"

// ErrPageNotFound 表示上游没有对应的文档页面。
var ErrPageNotFound = errors.New("documentation page not found")

// Client 负责从 docs.rs 拉取 rustdoc 页面并抽取正文，全程复用共享 http.Client。
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient constructs a docs.rs client. A nil httpClient falls back to
// http.DefaultClient and an empty baseURL falls back to DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchPage 拉取指定页面并返回抽取后的正文。任何非 2xx 响应统一映射为
// ErrPageNotFound；页面里找不到 rustdoc 正文节点时降级为指向原始 URL 的占位文本。
func (c *Client) FetchPage(ctx context.Context, page PageRequest) (PageContent, error) {
	pageURL, err := c.pageURL(page)
	if err != nil {
		return PageContent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return PageContent{}, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PageContent{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return PageContent{}, ErrPageNotFound
	}

	text, ok := extractBody(resp.Body)
	if !ok {
		text = fmt.Sprintf("Documentation available at %s", pageURL)
	}
	return PageContent{Content: text}, nil
}

func (c *Client) pageURL(page PageRequest) (string, error) {
	if strings.TrimSpace(page.CrateName) == "" {
		return "", errors.New("crate name required")
	}
	return fmt.Sprintf(
		"%s/%s/%s/%s",
		c.baseURL,
		page.CrateName,
		page.Version,
		strings.TrimPrefix(page.Path, "/"),
	), nil
}
