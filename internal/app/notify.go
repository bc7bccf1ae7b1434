package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/portfolio/internal/config"
)

// notifyTimeout は通知リクエスト全体のタイムアウト。
const notifyTimeout = 60 * time.Second

// notifyOptions はnotifyサブコマンドの引数。
type notifyOptions struct {
	title       string
	slug        string
	excerpt     string
	author      string
	publishedAt string
	baseURL     string
}

// notifyPayload は /api/notify-subscribers に送るリクエストボディ。
type notifyPayload struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Excerpt     string `json:"excerpt"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	APIKey      string `json:"apiKey"`
}

// notifyReply はサーバーの応答のうち表示に使う部分。
type notifyReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SentTo  int    `json:"sentTo"`
}

func parseNotifyFlags(args []string, defaultURL string, output io.Writer) (*notifyOptions, error) {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &notifyOptions{}
	fs.StringVar(&opts.title, "title", "", "記事タイトル（必須）")
	fs.StringVar(&opts.slug, "slug", "", "記事のslug（必須）")
	fs.StringVar(&opts.excerpt, "excerpt", "", "抜粋（必須）")
	fs.StringVar(&opts.author, "author", "", "著者名")
	fs.StringVar(&opts.publishedAt, "published-at", "", "公開日時（ISO 8601）")
	fs.StringVar(&opts.baseURL, "url", defaultURL, "APIサーバーのベースURL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", opts.title},
		{"slug", opts.slug},
		{"excerpt", opts.excerpt},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, "-"+f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	return opts, nil
}

// runNotify は購読者通知APIを呼び出し、結果をwに出力する。
func runNotify(w io.Writer, cfg *config.Config, args []string) error {
	opts, err := parseNotifyFlags(args, "http://localhost:"+cfg.ServerPort, w)
	if err != nil {
		return err
	}
	if cfg.NotifyAPIKey == "" {
		return errors.New("BLOG_NOTIFY_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	reply, err := postNotification(ctx, &http.Client{}, opts, cfg.NotifyAPIKey)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, reply.Message)
	fmt.Fprintf(w, "Notified %d subscriber(s)\n", reply.SentTo)
	return nil
}

func postNotification(ctx context.Context, client *http.Client, opts *notifyOptions, apiKey string) (*notifyReply, error) {
	body, err := json.Marshal(notifyPayload{
		Title:       opts.title,
		Slug:        opts.slug,
		Excerpt:     opts.excerpt,
		Author:      opts.author,
		PublishedAt: opts.publishedAt,
		APIKey:      apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(opts.baseURL, "/") + "/api/notify-subscribers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notify request failed: %w", err)
	}
	defer resp.Body.Close()

	var reply notifyReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !reply.Success {
		return nil, fmt.Errorf("notify failed with status %d: %s", resp.StatusCode, reply.Message)
	}

	return &reply, nil
}
