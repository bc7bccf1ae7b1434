// Package subscription はニュースレター購読のドメインロジックを提供する。
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/portfolio/internal/mail"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/repository"
)

// 購読イベント
const (
	EventSubscribed   = "subscribed"
	EventResubscribed = "resubscribed"
	EventUnsubscribed = "unsubscribed"
)

// EventRecorder は購読イベントを記録するインターフェース。
type EventRecorder interface {
	RecordSubscriberEvent(event string)
}

// Settings はメール送信に使う差出人とサイトURL。
type Settings struct {
	From    string
	SiteURL string
}

// SubscribeResult は購読登録の結果。
type SubscribeResult struct {
	Subscriber  *model.Subscriber
	Reactivated bool
	DevMode     bool
}

// UnsubscribeResult は購読解除の結果。
type UnsubscribeResult struct {
	DevMode bool
}

// Service は購読管理のサービス層。
// 購読登録、購読解除、有効な購読者一覧のビジネスロジックを提供する。
type Service struct {
	repo     repository.SubscriberRepository
	sender   mail.Sender
	settings Settings
	logger   *slog.Logger
	recorder EventRecorder
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnil可。
func NewService(
	repo repository.SubscriberRepository,
	sender mail.Sender,
	settings Settings,
	logger *slog.Logger,
	recorder EventRecorder,
) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		settings: settings,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Subscribe はemailを購読者として登録する。
//
// 有効な購読が既にある場合は購読済みエラーを返す。解除済みの購読者は同じ行を再度有効にする。
// 歓迎メールの送信失敗はログに記録するのみで、登録自体は成功として扱う。
func (s *Service) Subscribe(ctx context.Context, email, name string) (*SubscribeResult, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, model.WrapStoreError("購読者の検索に失敗しました", err)
	}

	now := s.now().UTC()
	result := &SubscribeResult{}

	switch {
	case existing != nil && existing.UnsubscribedAt == nil:
		return nil, model.NewAlreadySubscribedError()

	case existing != nil:
		ok, err := s.repo.Reactivate(ctx, email, name, now)
		if err != nil {
			return nil, model.WrapStoreError("購読の再開に失敗しました", err)
		}
		if !ok {
			// 並行リクエストが先に再開した
			return nil, model.NewAlreadySubscribedError()
		}
		existing.UnsubscribedAt = nil
		existing.SubscribedAt = now
		existing.Confirmed = true
		if name != "" {
			existing.Name = name
		}
		result.Subscriber = existing
		result.Reactivated = true
		s.record(EventResubscribed)

	default:
		sub := &model.Subscriber{
			ID:           uuid.New().String(),
			Email:        email,
			Name:         name,
			SubscribedAt: now,
			Confirmed:    true,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return nil, model.NewAlreadySubscribedError()
			}
			return nil, model.WrapStoreError("購読者の登録に失敗しました", err)
		}
		result.Subscriber = sub
		s.record(EventSubscribed)
	}

	s.logger.InfoContext(ctx, "subscriber added",
		slog.String("subscriber_id", result.Subscriber.ID),
		slog.Bool("reactivated", result.Reactivated),
	)

	content, err := mail.Welcome(mail.WelcomeData{Name: result.Subscriber.Name, SiteURL: s.settings.SiteURL})
	if err != nil {
		s.logger.ErrorContext(ctx, "歓迎メールの生成に失敗しました", slog.String("error", err.Error()))
		return result, nil
	}
	delivery, err := s.sender.Send(ctx, content.Message(s.settings.From, email))
	if err != nil {
		s.logger.WarnContext(ctx, "welcome email failed, subscriber was added",
			slog.String("subscriber_id", result.Subscriber.ID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	result.DevMode = delivery.DevMode

	return result, nil
}

// Unsubscribe は購読を解除する。
//
// 登録のないemailは未登録エラー、解除済みのemailは解除済みエラーを返す。
// 確認メールの送信失敗はログに記録するのみ。
func (s *Service) Unsubscribe(ctx context.Context, email, reason string) (*UnsubscribeResult, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, model.WrapStoreError("購読者の検索に失敗しました", err)
	}
	if existing == nil {
		return nil, model.NewSubscriberNotFoundError()
	}

	changed, err := s.repo.SoftDeleteByEmail(ctx, email, s.now().UTC())
	if err != nil {
		return nil, model.WrapStoreError("購読の解除に失敗しました", err)
	}
	if !changed {
		return nil, model.NewAlreadyUnsubscribedError()
	}
	s.record(EventUnsubscribed)

	attrs := []any{slog.String("subscriber_id", existing.ID)}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}
	s.logger.InfoContext(ctx, "subscriber unsubscribed", attrs...)

	result := &UnsubscribeResult{}
	content, err := mail.Goodbye(mail.GoodbyeData{Name: existing.Name})
	if err != nil {
		s.logger.ErrorContext(ctx, "確認メールの生成に失敗しました", slog.String("error", err.Error()))
		return result, nil
	}
	delivery, err := s.sender.Send(ctx, content.Message(s.settings.From, email))
	if err != nil {
		s.logger.WarnContext(ctx, "goodbye email failed, subscriber was unsubscribed",
			slog.String("subscriber_id", existing.ID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	result.DevMode = delivery.DevMode

	return result, nil
}

// ListActive は有効な購読者の一覧を返す。
func (s *Service) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	subs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, model.WrapStoreError("購読者一覧の取得に失敗しました", err)
	}
	if subs == nil {
		subs = []model.Subscriber{}
	}
	return subs, nil
}

func (s *Service) record(event string) {
	if s.recorder != nil {
		s.recorder.RecordSubscriberEvent(event)
	}
}
