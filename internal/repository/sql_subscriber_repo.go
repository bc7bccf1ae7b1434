package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/portfolio/internal/model"
)

// SQLSubscriberRepo はdatabase/sqlを使用した購読者リポジトリ。
// PostgreSQLとSQLiteの両方で動作するSQLのみを使用する。
type SQLSubscriberRepo struct {
	db *sql.DB
}

var _ SubscriberRepository = (*SQLSubscriberRepo)(nil)

// NewSQLSubscriberRepo はSQLSubscriberRepoを生成する。
func NewSQLSubscriberRepo(db *sql.DB) *SQLSubscriberRepo {
	return &SQLSubscriberRepo{db: db}
}

const subscriberColumns = `id, email, name, subscribed_at, confirmed, unsubscribed_at`

// Create は購読者を作成する。
func (r *SQLSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	var unsubscribedAt sql.NullTime
	if sub.UnsubscribedAt != nil {
		unsubscribedAt = sql.NullTime{Time: sub.UnsubscribedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, name, subscribed_at, confirmed, unsubscribed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.Email, nullString(sub.Name), sub.SubscribedAt.UTC(), sub.Confirmed, unsubscribedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}

	return nil
}

// FindByEmail はemailで購読者を検索する。見つからない場合はnilを返す。
func (r *SQLSubscriberRepo) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`,
		email,
	)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	return sub, nil
}

// FindActiveByEmail は有効な購読者をemailで検索する。見つからない場合はnilを返す。
func (r *SQLSubscriberRepo) FindActiveByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers
		 WHERE email = $1 AND confirmed = $2 AND unsubscribed_at IS NULL`,
		email, true,
	)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("有効な購読者の検索に失敗しました: %w", err)
	}
	return sub, nil
}

// SoftDeleteByEmail はunsubscribed_atを設定して購読を解除する。
func (r *SQLSubscriberRepo) SoftDeleteByEmail(ctx context.Context, email string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET unsubscribed_at = $1
		 WHERE email = $2 AND unsubscribed_at IS NULL`,
		at.UTC(), email,
	)
	if err != nil {
		return false, fmt.Errorf("購読解除に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("影響行数の取得に失敗しました: %w", err)
	}

	return rows > 0, nil
}

// Reactivate は解除済みの購読者を再度有効にし、購読日時を更新する。
func (r *SQLSubscriberRepo) Reactivate(ctx context.Context, email, name string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscribers
		 SET subscribed_at = $1, confirmed = $2, unsubscribed_at = NULL, name = COALESCE($3, name)
		 WHERE email = $4 AND unsubscribed_at IS NOT NULL`,
		at.UTC(), true, nullString(name), email,
	)
	if err != nil {
		return false, fmt.Errorf("購読の再開に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("影響行数の取得に失敗しました: %w", err)
	}

	return rows > 0, nil
}

// ListActive は有効な購読者を購読日時の新しい順に返す。
func (r *SQLSubscriberRepo) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers
		 WHERE confirmed = $1 AND unsubscribed_at IS NULL
		 ORDER BY subscribed_at DESC`,
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("購読者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("購読者の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購読者一覧の走査に失敗しました: %w", err)
	}

	return subs, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (*model.Subscriber, error) {
	var (
		sub            model.Subscriber
		name           sql.NullString
		unsubscribedAt sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.Email, &name, &sub.SubscribedAt, &sub.Confirmed, &unsubscribedAt); err != nil {
		return nil, err
	}
	sub.Name = name.String
	if unsubscribedAt.Valid {
		t := unsubscribedAt.Time
		sub.UnsubscribedAt = &t
	}
	return &sub, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
