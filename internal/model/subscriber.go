package model

import "time"

// Subscriber はニュースレター購読者を表す。
// 購読解除は行削除ではなくUnsubscribedAtの設定（ソフトデリート）で表現する。
type Subscriber struct {
	ID             string
	Email          string
	Name           string
	SubscribedAt   time.Time
	Confirmed      bool
	UnsubscribedAt *time.Time
}

// Active は購読が有効か（確認済みかつ未解除か）を返す。
func (s *Subscriber) Active() bool {
	return s.Confirmed && s.UnsubscribedAt == nil
}

// ContactMessage はお問い合わせフォームの送信内容。監査ログとしてのみ保存する。
type ContactMessage struct {
	ID          string
	Name        string
	Email       string
	Message     string
	SubmittedAt time.Time
	Responded   bool
}

// PostNotification は購読者に通知する公開記事のメタデータ。
type PostNotification struct {
	Title       string
	Slug        string
	Excerpt     string
	PublishedAt *time.Time
	Author      string
}

// NotificationResult は通知処理の結果。
type NotificationResult struct {
	SentTo    int
	DevMode   bool
	MessageID string
	Message   string
}
