package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 64 << 10

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// 詳細はサーバーログにのみ記録する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "request failed",
				slog.String("path", r.URL.Path),
				slog.String("code", apiErr.Code),
				slog.String("error", err.Error()),
			)
		}
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidRequest, model.ErrCodeInvalidCategory:
		return http.StatusBadRequest
	case model.ErrCodeAlreadySubscribed, model.ErrCodeAlreadyUnsubscribed:
		// 重複購読は汎用の500ではなく識別可能な400で返す
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeMissingSignature, model.ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case model.ErrCodeSubscriberNotFound, model.ErrCodeContentNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをvにデコードする。
// 解析できない場合はInvalidRequestエラーを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewInvalidRequestError()
	}
	return nil
}

// validatable はozzo-validationのValidatableと同じ形のリクエストDTO。
type validatable interface {
	Validate() error
}

// normalizer は検証前に入力を整形するリクエストDTO。
type normalizer interface {
	Normalize()
}

// decodeAndValidate はボディのデコードとフィールド検証を行う。
// Normalizeを持つDTOは整形後の値で検証するため、ハンドラーは検証済みの値をそのまま使える。
// 返すエラーはいずれもAPIError。
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req validatable) error {
	if err := decodeJSON(w, r, req); err != nil {
		return err
	}
	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}
	return validationError(req.Validate())
}

// validationError はozzo-validationの検証結果をフィールド単位のValidationErrorに変換する。
func validationError(err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return model.NewValidationError(fields)
}
