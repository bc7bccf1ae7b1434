// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
)

// ErrDuplicateEmail は同一emailの購読者が既に存在する場合に返される。
var ErrDuplicateEmail = errors.New("subscriber email already exists")

// SubscriberRepository は購読者データの永続化インターフェース。
// すべての書き込みは単一行・自動コミットで行う。
type SubscriberRepository interface {
	// Create は購読者を作成する。email重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, sub *model.Subscriber) error

	// FindByEmail はemailで購読者を検索する（解除済みを含む）。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// FindActiveByEmail は有効な購読者をemailで検索する。見つからない場合はnilを返す。
	FindActiveByEmail(ctx context.Context, email string) (*model.Subscriber, error)

	// SoftDeleteByEmail は購読を解除済みにする。
	// 未解除の行が存在しなかった場合はfalseを返す。
	SoftDeleteByEmail(ctx context.Context, email string, at time.Time) (bool, error)

	// Reactivate は解除済みの購読者を再度有効にする。
	// nameが空の場合は既存の名前を維持する。解除済みの行がなければfalseを返す。
	Reactivate(ctx context.Context, email, name string, at time.Time) (bool, error)

	// ListActive は有効な購読者を購読日時の新しい順に返す。
	ListActive(ctx context.Context) ([]model.Subscriber, error)
}

// ContactRepository はお問い合わせメッセージの永続化インターフェース。
type ContactRepository interface {
	// Create はお問い合わせメッセージを保存する。
	Create(ctx context.Context, msg *model.ContactMessage) error
}
