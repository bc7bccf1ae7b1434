// Package notify は公開記事の購読者への通知を提供する。
package notify

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/hitoshi/portfolio/internal/mail"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/repository"
)

// 送信モード
const (
	ModeLive = "live"
	ModeDev  = "dev"
)

// Recorder は通知結果を記録するインターフェース。
type Recorder interface {
	RecordNotificationSent(mode string, recipients int)
	RecordNotificationFailure()
}

// Settings は通知に必要な設定。
type Settings struct {
	APIKey        string
	From          string
	SiteURL       string
	DefaultAuthor string
}

// Dispatcher は新着記事を有効な購読者全員に1通のメールで通知する。
type Dispatcher struct {
	repo     repository.SubscriberRepository
	sender   mail.Sender
	settings Settings
	logger   *slog.Logger
	recorder Recorder
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。recorderはnil可。
func NewDispatcher(
	repo repository.SubscriberRepository,
	sender mail.Sender,
	settings Settings,
	logger *slog.Logger,
	recorder Recorder,
) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		sender:   sender,
		settings: settings,
		logger:   logger,
		recorder: recorder,
	}
}

// NotifySubscribers は記事の公開を購読者に通知する。
//
// 処理順は APIキー検証 → 購読者の読み込み → 送信 で、検証に失敗した場合は
// データベースにアクセスしない。購読者がいない場合は送信せずに成功を返す。
// 送信は自動で再試行しない。
func (d *Dispatcher) NotifySubscribers(ctx context.Context, post model.PostNotification, apiKey string) (*model.NotificationResult, error) {
	if !d.authorized(apiKey) {
		d.logger.WarnContext(ctx, "notification rejected: invalid api key")
		return nil, model.NewUnauthorizedError()
	}

	subs, err := d.repo.ListActive(ctx)
	if err != nil {
		return nil, model.WrapStoreError("購読者一覧の取得に失敗しました", err)
	}

	if len(subs) == 0 {
		return &model.NotificationResult{SentTo: 0, Message: "No subscribers to notify"}, nil
	}

	recipients := make([]string, len(subs))
	for i, sub := range subs {
		recipients[i] = sub.Email
	}

	author := post.Author
	if author == "" {
		author = d.settings.DefaultAuthor
	}

	content, err := mail.BlogNotification(mail.BlogNotificationData{
		Title:       post.Title,
		Slug:        post.Slug,
		Excerpt:     post.Excerpt,
		Author:      author,
		PublishedAt: post.PublishedAt,
		SiteURL:     d.settings.SiteURL,
	})
	if err != nil {
		d.recordFailure()
		return nil, model.WrapDispatchError("通知メールの生成に失敗しました", err)
	}

	delivery, err := d.sender.Send(ctx, content.Message(d.settings.From, recipients...))
	if err != nil {
		d.recordFailure()
		d.logger.ErrorContext(ctx, "通知メールの送信に失敗しました",
			slog.String("slug", post.Slug),
			slog.Int("recipients", len(recipients)),
			slog.String("error", err.Error()),
		)
		return nil, model.WrapDispatchError("通知メールの送信に失敗しました", err)
	}

	result := &model.NotificationResult{
		SentTo:    len(recipients),
		DevMode:   delivery.DevMode,
		MessageID: delivery.ID,
	}
	mode := ModeLive
	if delivery.DevMode {
		mode = ModeDev
		result.Message = fmt.Sprintf("Dev mode: Would notify %d subscribers about \"%s\"", result.SentTo, post.Title)
	} else {
		result.Message = fmt.Sprintf("Successfully notified %d subscribers about \"%s\"", result.SentTo, post.Title)
	}
	if d.recorder != nil {
		d.recorder.RecordNotificationSent(mode, result.SentTo)
	}

	d.logger.InfoContext(ctx, "subscribers notified",
		slog.String("slug", post.Slug),
		slog.Int("recipients", result.SentTo),
		slog.String("mode", mode),
	)

	return result, nil
}

// authorized はAPIキーを定数時間で比較する。設定値が空の場合は常に不一致。
func (d *Dispatcher) authorized(apiKey string) bool {
	if d.settings.APIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(d.settings.APIKey)) == 1
}

func (d *Dispatcher) recordFailure() {
	if d.recorder != nil {
		d.recorder.RecordNotificationFailure()
	}
}
