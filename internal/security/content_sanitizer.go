// Package security はアプリケーションのセキュリティ機能を提供する。
//
// Sanitizer はMarkdownから生成した記事HTMLをサニタイズし、
// ローカルコンテンツ経由のXSSを防ぐ。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"net/url"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// ローカルのMarkdown記事・プロジェクト本文のレンダリング後に使用される。
type Sanitizer interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

var codeLanguageClass = regexp.MustCompile(`^language-[\w+#-]+$`)

// articleSanitizer はSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type articleSanitizer struct {
	policy *bluemonday.Policy
}

// NewArticleSanitizer は記事本文用のSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: 見出し, p, br, hr, リスト, blockquote, pre, code, 強調, del, テーブル, img, a
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - URLスキーム: https と mailto、および相対URL
//   - codeのclassはlanguage-*のみ
//   - 外部リンク: target="_blank" と rel="noopener noreferrer" を自動付与
//   - GFMタスクリストのチェックボックス（disabled）
func NewArticleSanitizer() *articleSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "del", "sup", "sub",
	)
	p.AllowTables()
	p.AllowAttrs("align").Matching(regexp.MustCompile(`^(left|right|center)$`)).OnElements("th", "td")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")

	p.AllowAttrs("class").Matching(codeLanguageClass).OnElements("code")

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})
	p.AllowURLSchemes("mailto")

	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	return &articleSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *articleSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
