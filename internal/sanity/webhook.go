package sanity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// SignatureHeader はWebhook署名を運ぶHTTPヘッダー名。
const SignatureHeader = "sanity-webhook-signature"

// DefaultExcerpt は本文からも抜粋を取り出せなかった場合の文言。
const DefaultExcerpt = "New blog post published!"

// 抜粋の抽出条件
const (
	excerptMinLength = 10
	excerptMaxLength = 150
)

// 署名検証のエラー
var (
	ErrMalformedSignature = errors.New("署名ヘッダーの形式が不正です")
	ErrSignatureMismatch  = errors.New("署名が一致しません")
)

// VerifySignature はWebhookの署名ヘッダーを検証する。
//
// ヘッダーは "t=<UNIXミリ秒>,v1=<署名>" 形式で、署名は
// HMAC-SHA256(secret, "<t>.<body>") をパディングなしのbase64urlで表したもの。
// 比較は定数時間で行う。
func VerifySignature(secret string, header string, body []byte) error {
	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	got, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(signature, "="))
	if err != nil {
		return ErrMalformedSignature
	}

	want := computeSignature(secret, timestamp, body)
	if !hmac.Equal(got, want) {
		return ErrSignatureMismatch
	}
	return nil
}

// SignPayload は検証と同じ方式で署名ヘッダーの値を生成する。
// テストや手動でのWebhook送信に使用する。
func SignPayload(secret string, body []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.UnixMilli(), 10)
	sig := base64.RawURLEncoding.EncodeToString(computeSignature(secret, timestamp, body))
	return "t=" + timestamp + ",v1=" + sig
}

func computeSignature(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (timestamp, signature string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return "", "", ErrMalformedSignature
	}
	if _, err := strconv.ParseInt(timestamp, 10, 64); err != nil {
		return "", "", ErrMalformedSignature
	}
	return timestamp, signature, nil
}

// WebhookPayload はドキュメント公開時にCMSから送られるペイロード。
type WebhookPayload struct {
	Type        string      `json:"_type"`
	ID          string      `json:"_id"`
	Rev         string      `json:"_rev,omitempty"`
	Title       string      `json:"title"`
	Slug        *slugField  `json:"slug"`
	Excerpt     string      `json:"excerpt"`
	PublishedAt string      `json:"publishedAt"`
	Body        []BodyBlock `json:"body"`
	Author      *struct {
		Name string `json:"name"`
	} `json:"author"`
}

// BodyBlock はポータブルテキストのブロック。テキスト抽出に必要な部分だけを持つ。
type BodyBlock struct {
	Type     string `json:"_type"`
	Style    string `json:"style,omitempty"`
	Children []Span `json:"children,omitempty"`
}

// Span はブロック内のテキスト片。
type Span struct {
	Type string `json:"_type"`
	Text string `json:"text"`
}

// SlugValue はslug.currentを返す。未設定の場合は空文字列。
func (p *WebhookPayload) SlugValue() string {
	if p.Slug == nil {
		return ""
	}
	return p.Slug.Current
}

// AuthorName は著者名を返す。未設定の場合はfallbackを返す。
func (p *WebhookPayload) AuthorName(fallback string) string {
	if p.Author == nil || strings.TrimSpace(p.Author.Name) == "" {
		return fallback
	}
	return p.Author.Name
}

// ParseWebhook はペイロードをデコードする。
func ParseWebhook(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExtractExcerpt は通知メールに載せる抜粋を決める。
//
// 指定済みの抜粋があればそれを使う。なければ本文のブロックを先頭から見て、
// span のテキストを空白で連結した結果が10文字を超える最初のものを採用し、
// 150文字を超える場合は切り詰めて "..." を付ける。いずれもなければ既定の文言を返す。
func ExtractExcerpt(body []BodyBlock, custom string) string {
	if trimmed := strings.TrimSpace(custom); trimmed != "" {
		return trimmed
	}

	for _, block := range body {
		if block.Type != "block" {
			continue
		}
		texts := make([]string, 0, len(block.Children))
		for _, child := range block.Children {
			if child.Type == "span" && child.Text != "" {
				texts = append(texts, child.Text)
			}
		}
		text := strings.Join(texts, " ")
		if utf8.RuneCountInString(text) > excerptMinLength {
			if utf8.RuneCountInString(text) > excerptMaxLength {
				return string([]rune(text)[:excerptMaxLength]) + "..."
			}
			return text
		}
	}

	return DefaultExcerpt
}
