// Package feed はブログ記事のRSSフィード生成を提供する。
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
)

// maxItems はフィードに含める記事の上限。
const maxItems = 50

// PostLister は公開記事の一覧を返すインターフェース。
// content.Resolverが実装する。
type PostLister interface {
	ListPosts(ctx context.Context) []model.Post
}

// Channel はフィードのチャンネル情報。
type Channel struct {
	Title       string
	SiteURL     string
	Description string
	Language    string
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	SelfLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	GUID        rssGUID  `xml:"guid"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Builder は記事一覧からRSS 2.0フィードを生成する。
type Builder struct {
	posts   PostLister
	channel Channel
}

// NewBuilder はBuilderの新しいインスタンスを生成する。
func NewBuilder(posts PostLister, channel Channel) *Builder {
	return &Builder{posts: posts, channel: channel}
}

// Write は現在の記事一覧からフィードを生成しwに書き込む。
// 記事の取得はリゾルバのフォールバックに従うため、ここでは失敗しない。
func (b *Builder) Write(ctx context.Context, w io.Writer) error {
	return WriteRSS(w, b.channel, b.posts.ListPosts(ctx))
}

// WriteRSS は記事一覧をRSS 2.0としてwに書き込む。
// 記事は渡された順序のまま、先頭からmaxItems件を出力する。
func WriteRSS(w io.Writer, ch Channel, posts []model.Post) error {
	base := strings.TrimRight(ch.SiteURL, "/")

	if len(posts) > maxItems {
		posts = posts[:maxItems]
	}

	items := make([]rssItem, 0, len(posts))
	var latest time.Time
	for _, p := range posts {
		link := PostURL(base, p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			GUID:        rssGUID{Value: link, IsPermaLink: true},
			Categories:  p.Tags,
		}
		if !p.PublishedAt.IsZero() {
			item.PubDate = p.PublishedAt.UTC().Format(time.RFC1123Z)
			if p.PublishedAt.After(latest) {
				latest = p.PublishedAt
			}
		}
		items = append(items, item)
	}

	doc := rssDocument{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        base,
			Description: ch.Description,
			Language:    ch.Language,
			SelfLink: atomLink{
				Href: base + "/feed.xml",
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: items,
		},
	}
	if !latest.IsZero() {
		doc.Channel.LastBuildDate = latest.UTC().Format(time.RFC1123Z)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("RSSヘッダーの書き込みに失敗しました: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("RSSのエンコードに失敗しました: %w", err)
	}
	return nil
}

// PostURL は記事の公開URLを返す。
func PostURL(siteURL, slug string) string {
	return strings.TrimRight(siteURL, "/") + "/blog/" + slug
}
