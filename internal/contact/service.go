// Package contact はお問い合わせフォームの受付を提供する。
package contact

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/portfolio/internal/mail"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/repository"
)

// Settings はお問い合わせ転送メールの差出人・宛先・サイトURL。
type Settings struct {
	From    string
	To      string
	SiteURL string
}

// Input はお問い合わせフォームの入力値。検証済みであること。
type Input struct {
	Name    string
	Email   string
	Message string
}

// Result はお問い合わせ受付の結果。
type Result struct {
	DevMode bool
}

// Service はお問い合わせのサービス層。
type Service struct {
	repo     repository.ContactRepository
	sender   mail.Sender
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ContactRepository, sender mail.Sender, settings Settings, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit はお問い合わせを記録し、サイト所有者へ1通のメールで転送する。
// 記録の失敗はログのみとし、メール送信の失敗はDispatchErrorを返す。
func (s *Service) Submit(ctx context.Context, in Input) (*Result, error) {
	msg := &model.ContactMessage{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Email:       in.Email,
		Message:     in.Message,
		SubmittedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "お問い合わせの記録に失敗しました",
			slog.String("contact_id", msg.ID),
			slog.String("error", err.Error()),
		)
	}

	content, err := mail.ContactForm(mail.ContactFormData{
		Name:        in.Name,
		Email:       in.Email,
		Message:     in.Message,
		SubmittedAt: msg.SubmittedAt,
		SiteURL:     s.settings.SiteURL,
	})
	if err != nil {
		return nil, model.WrapDispatchError("お問い合わせメールの生成に失敗しました", err)
	}

	out := content.Message(s.settings.From, s.settings.To)
	out.ReplyTo = in.Email

	delivery, err := s.sender.Send(ctx, out)
	if err != nil {
		s.logger.ErrorContext(ctx, "お問い合わせメールの送信に失敗しました",
			slog.String("contact_id", msg.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.WrapDispatchError("お問い合わせメールの送信に失敗しました", err)
	}

	s.logger.InfoContext(ctx, "contact message received",
		slog.String("contact_id", msg.ID),
		slog.Bool("dev_mode", delivery.DevMode),
	)

	return &Result{DevMode: delivery.DevMode}, nil
}
