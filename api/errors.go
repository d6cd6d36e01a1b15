package api

import (
	"errors"
	"fmt"
	"strings"
)

// APIError はHTTPリクエストの失敗を表します。
// StatusCode が 0 の場合は通信エラーです
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s => NOK (%d %s)", e.Method, e.URL, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s => NOK (%v)", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s => NOK (%s)", e.Method, e.URL, e.Message)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode はエラーに含まれるHTTPステータスを返します。取得できない場合は0です
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorMessage はJIRAのエラーレスポンスから読みやすいメッセージを取り出します
func errorMessage(body []byte) string {
	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := decodeJSON(body, &payload); err == nil {
		var parts []string
		parts = append(parts, payload.ErrorMessages...)
		for field, msg := range payload.Errors {
			parts = append(parts, field+": "+msg)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(string(body))
}
