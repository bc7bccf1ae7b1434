package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページごとにlayoutと組み合わせたテンプレートセットを持つ。
var pages = map[string]*template.Template{
	"blog_notification": mustPage("blog_notification.html"),
	"welcome":           mustPage("welcome.html"),
	"goodbye":           mustPage("goodbye.html"),
	"contact_form":      mustPage("contact_form.html"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// Content はテンプレートから生成した件名と本文。
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// Message はContentから送信用のMessageを組み立てる。
func (c Content) Message(from string, to ...string) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: c.Subject,
		HTML:    c.HTML,
		Text:    c.Text,
	}
}

// BlogNotificationData は新着記事通知のテンプレート入力。
type BlogNotificationData struct {
	Title       string
	Slug        string
	Excerpt     string
	Author      string
	PublishedAt *time.Time
	SiteURL     string
}

// PostURL は記事ページのURLを返す。
func (d BlogNotificationData) PostURL() string {
	return strings.TrimRight(d.SiteURL, "/") + "/blog/" + d.Slug
}

// UnsubscribeURL は購読解除の案内ページのURLを返す。
func (d BlogNotificationData) UnsubscribeURL() string {
	return strings.TrimRight(d.SiteURL, "/") + "/blog#unsubscribe"
}

// PublishDate は表示用の公開日。未指定の場合は "Just published"。
func (d BlogNotificationData) PublishDate() string {
	if d.PublishedAt == nil || d.PublishedAt.IsZero() {
		return "Just published"
	}
	return d.PublishedAt.Format("Jan 2, 2006")
}

// BlogNotification は新着記事通知メールを生成する。
func BlogNotification(d BlogNotificationData) (Content, error) {
	return render("blog_notification", "New post: "+d.Title, d)
}

// WelcomeData は購読開始メールのテンプレート入力。
type WelcomeData struct {
	Name    string
	SiteURL string
}

// UnsubscribeURL は購読解除の案内ページのURLを返す。
func (d WelcomeData) UnsubscribeURL() string {
	return strings.TrimRight(d.SiteURL, "/") + "/blog#unsubscribe"
}

// Welcome は購読開始メールを生成する。
func Welcome(d WelcomeData) (Content, error) {
	return render("welcome", "Welcome to my newsletter!", d)
}

// GoodbyeData は購読解除確認メールのテンプレート入力。
type GoodbyeData struct {
	Name string
}

// Goodbye は購読解除確認メールを生成する。
func Goodbye(d GoodbyeData) (Content, error) {
	return render("goodbye", "You've been unsubscribed", d)
}

// ContactFormData はお問い合わせ転送メールのテンプレート入力。
type ContactFormData struct {
	Name        string
	Email       string
	Message     string
	SubmittedAt time.Time
	SiteURL     string
}

// ReceivedAt は表示用の受信日時。
func (d ContactFormData) ReceivedAt() string {
	return d.SubmittedAt.UTC().Format("Jan 2, 2006 15:04 MST")
}

// ContactForm はお問い合わせ転送メールを生成する。
func ContactForm(d ContactFormData) (Content, error) {
	return render("contact_form", "New contact form message from "+d.Name, d)
}

func render(page, subject string, data any) (Content, error) {
	tmpl, ok := pages[page]
	if !ok {
		return Content{}, fmt.Errorf("テンプレート %s が見つかりません", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Content{}, fmt.Errorf("テンプレート %s の展開に失敗しました: %w", page, err)
	}

	html := buf.String()
	return Content{
		Subject: subject,
		HTML:    html,
		Text:    PlainText(html),
	}, nil
}
