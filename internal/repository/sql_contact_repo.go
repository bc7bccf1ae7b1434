package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/portfolio/internal/model"
)

// SQLContactRepo はdatabase/sqlを使用したお問い合わせリポジトリ。
type SQLContactRepo struct {
	db *sql.DB
}

var _ ContactRepository = (*SQLContactRepo)(nil)

// NewSQLContactRepo はSQLContactRepoを生成する。
func NewSQLContactRepo(db *sql.DB) *SQLContactRepo {
	return &SQLContactRepo{db: db}
}

// Create はお問い合わせメッセージを保存する。
func (r *SQLContactRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, email, message, submitted_at, responded)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.Name, msg.Email, msg.Message, msg.SubmittedAt.UTC(), msg.Responded,
	)
	if err != nil {
		return fmt.Errorf("お問い合わせの保存に失敗しました: %w", err)
	}
	return nil
}
