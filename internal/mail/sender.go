// Package mail はメール送信を提供する。
// 送信プロバイダーの認証情報がない場合は、送信内容をログに出力するdev modeで動作する。
package mail

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Message は送信するメール1通分の内容。Toに複数の宛先を指定すると1回の呼び出しでまとめて送る。
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Delivery は送信結果。
type Delivery struct {
	ID      string
	DevMode bool
}

// Sender はメール送信のインターフェース。
type Sender interface {
	Send(ctx context.Context, msg Message) (Delivery, error)
}

// NewSender はAPIキーの有無に応じてSenderを選択する。
// APIキーが空の場合はLogSenderを返す。
func NewSender(apiKey string, httpClient *http.Client, logger *slog.Logger) Sender {
	if strings.TrimSpace(apiKey) == "" {
		return NewLogSender(logger)
	}
	return NewResendClient(apiKey, httpClient, logger)
}

// LogSender は送信せずに内容をログへ出力するdev mode用のSender。
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender はLogSenderを生成する。
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send はメール内容を1件のログレコードとして出力する。
func (s *LogSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	s.logger.InfoContext(ctx, "dev mode email",
		slog.String("from", msg.From),
		slog.Any("to", msg.To),
		slog.Int("recipients", len(msg.To)),
		slog.String("reply_to", msg.ReplyTo),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return Delivery{DevMode: true}, nil
}
