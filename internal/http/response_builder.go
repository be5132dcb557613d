// Package http serves the screen view-models and the ledger write path as a
// JSON API.
//
// This file implements a small builder for JSON responses so every handler
// sets status, headers and body the same way.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"butce/internal/core"
	"butce/internal/store"
)

// User-facing messages.
const (
	MsgFillAllFields  = "Lütfen tüm alanları doldurun."
	MsgGenericError   = "Bir hata oluştu."
	MsgUpdateFailed   = "Güncelleme başarısız."
	MsgDeleteFailed   = "Silme işlemi başarısız."
	MsgNotFound       = "Kayıt bulunamadı."
	MsgBadRequest     = "Geçersiz istek."
	MsgInvalidAmount  = "Geçersiz tutar."
	MsgInvalidDate    = "Geçersiz tarih."
	MsgInvalidType    = "Geçersiz kategori türü."
	MsgWrongCategory  = "Kategori bu kayıt türüne ait değil."
	MsgCategoryName   = "Kategori adı boş olamaz."
	MsgIncomeAdded    = "Gelir eklendi!"
	MsgExpenseAdded   = "Gider eklendi!"
	MsgIncomeUpdated  = "Gelir güncellendi!"
	MsgExpenseUpdated = "Gider güncellendi!"
	MsgIncomeDeleted  = "Gelir silindi."
	MsgExpenseDeleted = "Gider silindi."
	MsgCategoryAdded  = "Kategori eklendi!"
	MsgTooManyWrites  = "Çok fazla istek. Lütfen biraz sonra tekrar deneyin."
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// MessageBody is the body of every error and of write confirmations.
type MessageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(MessageBody{Message: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// Created confirms a write with the stored value.
func Created(message string, data any) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusCreated).Body(MessageBody{Message: message, Data: data})
}

// OK confirms a write that changed an existing document.
func OK(message string, data any) *JSONResponseBuilder {
	return NewJSONResponse().Body(MessageBody{Message: message, Data: data})
}

// FromError maps a service error to a response. fallback is the message for
// store failures.
func FromError(err error, fallback string) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrValidation):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(MessageBody{Message: validationMessage(err), Error: validationCode(err)})
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(MsgNotFound)
	default:
		return InternalServerError(fallback)
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrUnparseableAmount):
		return MsgInvalidAmount
	case errors.Is(err, core.ErrInvalidDate):
		return MsgInvalidDate
	case errors.Is(err, core.ErrInvalidCategoryType):
		return MsgInvalidType
	case errors.Is(err, core.ErrCategoryTypeMismatch):
		return MsgWrongCategory
	case errors.Is(err, core.ErrEmptyName):
		return MsgCategoryName
	default:
		return MsgFillAllFields
	}
}

// validationCode names the failed check for API clients.
func validationCode(err error) string {
	for _, sentinel := range []error{
		core.ErrMissingAmount,
		core.ErrUnparseableAmount,
		core.ErrMissingCategory,
		core.ErrMissingDate,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrInvalidCategoryType,
		core.ErrCategoryTypeMismatch,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return core.ErrValidation.Error()
}
