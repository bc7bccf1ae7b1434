// Package sanity はホスト型CMS（Sanity）との連携機能を提供する。
// GROQクエリAPIの呼び出し、ドキュメントのドメインモデルへの変換、
// Webhook署名の検証を含む。
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/portfolio/internal/model"
)

const (
	// DefaultAPIVersion はクエリAPIのデフォルトバージョン。
	DefaultAPIVersion = "2023-12-01"
	// maxResponseBytes はレスポンスボディの読み取り上限。
	maxResponseBytes = 8 << 20
)

// Config はクエリAPIの接続設定。
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	Token      string
}

// Client はSanityのクエリAPIクライアント。
// content.RemoteProviderを実装する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	cfg        Config
	endpoint   string
}

// NewClient はClientの新しいインスタンスを生成する。
// トークンを使う場合はCDNを経由しない。
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	cfg.APIVersion = strings.TrimPrefix(cfg.APIVersion, "v")

	host := "api"
	if cfg.UseCDN && cfg.Token == "" {
		host = "apicdn"
	}

	return &Client{
		httpClient: httpClient,
		logger:     logger,
		cfg:        cfg,
		endpoint: fmt.Sprintf("https://%s.%s.sanity.io/v%s/data/query/%s",
			cfg.ProjectID, host, cfg.APIVersion, url.PathEscape(cfg.Dataset)),
	}
}

// Projects は全プロジェクトを日付の降順で返す。
func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	var docs []projectDoc
	if _, err := c.query(ctx, queryProjects, nil, &docs); err != nil {
		return nil, err
	}
	return c.toProjects(docs), nil
}

// ProjectBySlug はslugに一致するプロジェクトを返す。存在しない場合はnil, nil。
func (c *Client) ProjectBySlug(ctx context.Context, slug string) (*model.Project, error) {
	var doc projectDoc
	found, err := c.query(ctx, queryProjectBySlug, map[string]any{"slug": slug}, &doc)
	if err != nil || !found {
		return nil, err
	}
	p := c.toProject(doc)
	return &p, nil
}

// ProjectsByCategory はカテゴリに一致するプロジェクトを返す。
func (c *Client) ProjectsByCategory(ctx context.Context, category string) ([]model.Project, error) {
	var docs []projectDoc
	if _, err := c.query(ctx, queryProjectsByCategory, map[string]any{"category": category}, &docs); err != nil {
		return nil, err
	}
	return c.toProjects(docs), nil
}

// Posts は全記事を公開日の降順で返す。
func (c *Client) Posts(ctx context.Context) ([]model.Post, error) {
	var docs []postDoc
	if _, err := c.query(ctx, queryPosts, nil, &docs); err != nil {
		return nil, err
	}
	return c.toPosts(docs), nil
}

// PostBySlug はslugに一致する記事を返す。存在しない場合はnil, nil。
func (c *Client) PostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var doc postDoc
	found, err := c.query(ctx, queryPostBySlug, map[string]any{"slug": slug}, &doc)
	if err != nil || !found {
		return nil, err
	}
	p := c.toPost(doc)
	return &p, nil
}

// FeaturedPosts はおすすめ記事を返す。
func (c *Client) FeaturedPosts(ctx context.Context) ([]model.Post, error) {
	var docs []postDoc
	if _, err := c.query(ctx, queryFeaturedPosts, nil, &docs); err != nil {
		return nil, err
	}
	return c.toPosts(docs), nil
}

// Profile はプロフィールドキュメントを返す。未登録の場合はnil, nil。
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var doc profileDoc
	found, err := c.query(ctx, queryProfile, nil, &doc)
	if err != nil || !found {
		return nil, err
	}
	p := c.toProfile(doc)
	return &p, nil
}

// queryResponse はクエリAPIのレスポンス封筒。
type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// query はGROQクエリを実行し、resultをoutにデコードする。
// resultがnullの場合はfalseを返し、outは変更しない。
func (c *Client) query(ctx context.Context, groq string, params map[string]any, out any) (bool, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return false, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("query", groq)
	q.Set("perspective", "published")
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return false, fmt.Errorf("クエリパラメータ %s のエンコードに失敗しました: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return false, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Sanity APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Sanity APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", truncate(string(body), 200)),
		)
		return false, fmt.Errorf("Sanity APIがステータス %d を返しました", resp.StatusCode)
	}

	var envelope queryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	trimmed := bytes.TrimSpace(envelope.Result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("クエリ結果のパースに失敗しました: %w", err)
	}
	return true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
