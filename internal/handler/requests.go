package handler

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// contactRequest はお問い合わせフォームのリクエストボディ。
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Normalize は前後の空白を除く。
func (r *contactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
}

func (r contactRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Name must be at least 2 characters"),
			validation.RuneLength(2, 0).Error("Name must be at least 2 characters"),
			validation.RuneLength(0, 100).Error("Name must be less than 100 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Invalid email address"),
			is.EmailFormat.Error("Invalid email address"),
		),
		validation.Field(&r.Message,
			validation.Required.Error("Message must be at least 10 characters"),
			validation.RuneLength(10, 0).Error("Message must be at least 10 characters"),
			validation.RuneLength(0, 1000).Error("Message must be less than 1000 characters"),
		),
	)
}

// subscribeRequest は購読登録のリクエストボディ。
type subscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Normalize は前後の空白を除く。空白だけの名前は未指定として扱う。
func (r *subscribeRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

func (r subscribeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Please enter a valid email address"),
			is.EmailFormat.Error("Please enter a valid email address"),
		),
		validation.Field(&r.Name,
			validation.When(r.Name != "",
				validation.RuneLength(2, 0).Error("Name is required"),
				validation.RuneLength(0, 100).Error("Name must be less than 100 characters"),
			),
		),
	)
}

// unsubscribeRequest は購読解除のリクエストボディ。
type unsubscribeRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (r *unsubscribeRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r unsubscribeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Please enter a valid email address"),
			is.EmailFormat.Error("Please enter a valid email address"),
		),
		validation.Field(&r.Reason,
			validation.RuneLength(0, 500).Error("Reason must be less than 500 characters"),
		),
	)
}

// notifyRequest は記事公開通知のリクエストボディ。
type notifyRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Excerpt     string `json:"excerpt"`
	PublishedAt string `json:"publishedAt"`
	Author      string `json:"author"`
	APIKey      string `json:"apiKey"`
}

func (r notifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("Title is required")),
		validation.Field(&r.Slug, validation.Required.Error("Slug is required")),
		validation.Field(&r.Excerpt, validation.Required.Error("Excerpt is required")),
		validation.Field(&r.PublishedAt,
			validation.When(r.PublishedAt != "", validation.By(validTimestamp)),
		),
		validation.Field(&r.APIKey, validation.Required.Error("API key is required")),
	)
}

// publishedTime は公開日時を解析する。未指定の場合はnilを返す。
func (r notifyRequest) publishedTime() *time.Time {
	if r.PublishedAt == "" {
		return nil
	}
	t, ok := parseTimestamp(r.PublishedAt)
	if !ok {
		return nil
	}
	return &t
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func validTimestamp(value interface{}) error {
	s, _ := value.(string)
	if _, ok := parseTimestamp(s); !ok {
		return errors.New("Published date must be an ISO 8601 timestamp")
	}
	return nil
}
