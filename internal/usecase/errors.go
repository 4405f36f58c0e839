package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// handler がそのままステータスとメッセージに変換する
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// Tx の中で返した HTTPError はそのまま、それ以外は 500 に寄せる
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

func validatePaging(page int, limit int) error {
	if page < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return nil
}
