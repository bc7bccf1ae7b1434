package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/resend/resend-go/v2"
)

// ResendClient はResendのAPIでメールを送信するSender。
type ResendClient struct {
	client *resend.Client
	logger *slog.Logger
}

// NewResendClient はResendClientの新しいインスタンスを生成する。
// httpClientのタイムアウトとTransportがそのままAPI呼び出しに使われる。
func NewResendClient(apiKey string, httpClient *http.Client, logger *slog.Logger) *ResendClient {
	return &ResendClient{
		client: resend.NewCustomClient(httpClient, apiKey),
		logger: logger,
	}
}

// Send はメッセージを1回のAPI呼び出しで送信する。
// 2xx以外のステータスはエラーとして返す。
func (c *ResendClient) Send(ctx context.Context, msg Message) (Delivery, error) {
	if len(msg.To) == 0 {
		return Delivery{}, errors.New("宛先が指定されていません")
	}

	sent, err := c.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		c.logger.Error("メール送信APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.Int("recipients", len(msg.To)),
		)
		return Delivery{}, fmt.Errorf("メール送信に失敗しました: %w", err)
	}

	return Delivery{ID: sent.Id}, nil
}
