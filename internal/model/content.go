package model

import (
	"encoding/json"
	"time"
)

// Source はコンテンツレコードの取得元を表す判別子。
// リゾルバ境界で設定され、利用側はこの値で分岐する。
type Source string

const (
	// SourceLocal はローカルのmarkdownファイルから読み込んだレコード。
	SourceLocal Source = "local"
	// SourceRemote はホスト型CMSから取得したレコード。
	SourceRemote Source = "remote"
)

// BodyKind は本文の表現形式。
type BodyKind string

const (
	// BodyHTML はサニタイズ済みHTML文字列。ローカルレコードで使用する。
	BodyHTML BodyKind = "html"
	// BodyPortableText はCMSのブロック配列。リモートレコードで使用する。
	BodyPortableText BodyKind = "portable_text"
)

// Body はHTMLまたはブロック配列のいずれかを保持するタグ付き共用体。
type Body struct {
	Kind   BodyKind        `json:"kind"`
	HTML   string          `json:"html,omitempty"`
	Blocks json.RawMessage `json:"blocks,omitempty"`
}

// HTMLBody はHTML本文を生成する。
func HTMLBody(html string) Body {
	return Body{Kind: BodyHTML, HTML: html}
}

// PortableTextBody はブロック配列本文を生成する。
func PortableTextBody(blocks json.RawMessage) Body {
	return Body{Kind: BodyPortableText, Blocks: blocks}
}

// プロジェクトカテゴリ
const (
	ProjectCategoryHackathons = "hackathons"
	ProjectCategoryPersonal   = "personal"
)

// ValidProjectCategory はカテゴリが既知の値かを返す。
func ValidProjectCategory(category string) bool {
	return category == ProjectCategoryHackathons || category == ProjectCategoryPersonal
}

// Image は画像参照。リモートレコードではAssetRefから解決したURLを持つ。
type Image struct {
	URL      string `json:"url"`
	AssetRef string `json:"assetRef,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// ProjectLinks はプロジェクトの外部リンク。
type ProjectLinks struct {
	Demo string `json:"demo,omitempty"`
	Repo string `json:"repo,omitempty"`
}

// Project はポートフォリオのプロジェクトレコード。
type Project struct {
	ID          string       `json:"id"`
	Source      Source       `json:"source"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Category    string       `json:"category"`
	Summary     string       `json:"summary"`
	Body        Body         `json:"body"`
	Tags        []string     `json:"tags"`
	Role        string       `json:"role,omitempty"`
	Date        time.Time    `json:"date"`
	Links       ProjectLinks `json:"links"`
	CoverImage  *Image       `json:"coverImage,omitempty"`
	Gallery     []Image      `json:"gallery,omitempty"`
	ReadingTime string       `json:"readingTime,omitempty"`
	Featured    bool         `json:"featured"`
}

// Post はブログ記事レコード。
type Post struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Body        Body      `json:"body"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"publishedAt"`
	ReadingTime string    `json:"readingTime,omitempty"`
	Featured    bool      `json:"featured"`
	CoverImage  *Image    `json:"coverImage,omitempty"`
}

// Socials はSNSアカウントのURL。
type Socials struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Substack string `json:"substack,omitempty"`
}

// Newsletter はニュースレターの掲載設定。
type Newsletter struct {
	Provider    string `json:"provider,omitempty"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

// Profile はサイト所有者のプロフィール。
type Profile struct {
	Source      Source     `json:"source"`
	Name        string     `json:"name"`
	Headline    string     `json:"headline"`
	Location    string     `json:"location"`
	BioFormal   string     `json:"bioFormal"`
	EmailPublic string     `json:"emailPublic"`
	Socials     Socials    `json:"socials"`
	ResumeURL   string     `json:"resumeUrl"`
	Avatar      *Image     `json:"avatar,omitempty"`
	Skills      []string   `json:"skills,omitempty"`
	Newsletter  Newsletter `json:"newsletter"`
}
