package content

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"github.com/hitoshi/portfolio/internal/security"
)

// wordsPerMinute は読了時間の計算に使う1分あたりの語数。
const wordsPerMinute = 200

// excerptLength は抜粋が未指定の記事で本文から切り出す文字数。
const excerptLength = 200

// Renderer はmarkdown本文をサニタイズ済みHTMLに変換する。
type Renderer struct {
	md        goldmark.Markdown
	sanitizer security.Sanitizer
}

// NewRenderer はGFM拡張を有効にしたRendererを生成する。
func NewRenderer(sanitizer security.Sanitizer) *Renderer {
	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: sanitizer,
	}
}

// Render はmarkdownをHTMLに変換し、サニタイズして返す。
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdownの変換に失敗しました: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}

// ReadingTime は "N min read" 形式の読了時間を返す。
// Nはceil(語数/200)で、最小値は1。
func ReadingTime(body string) string {
	words := len(strings.Fields(body))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// PlainText はHTMLからテキストノードだけを取り出し、空白を1つに畳んで返す。
// script・styleの中身は含めない。
func PlainText(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))

	var (
		sb   strings.Builder
		skip int
	)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "p", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "tr", "div":
				sb.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "td", "th", "div":
				sb.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}

// excerptFrom は本文テキストの先頭excerptLength文字に "..." を付けた抜粋を返す。
func excerptFrom(text string) string {
	if utf8.RuneCountInString(text) <= excerptLength {
		return text + "..."
	}
	runes := []rune(text)
	return string(runes[:excerptLength]) + "..."
}
