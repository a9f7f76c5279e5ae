// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package shared

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorKind classifies an error for the API surface. Every service error
// that reaches a controller carries a kind so the error handler can map
// it to a status code without inspecting messages.
type ErrorKind string

const (
	ErrorKindValidation   ErrorKind = "VALIDATION_ERROR"
	ErrorKindUnauthorized ErrorKind = "UNAUTHORIZED"
	ErrorKindForbidden    ErrorKind = "FORBIDDEN"
	ErrorKindNotFound     ErrorKind = "NOT_FOUND"
	ErrorKindConflict     ErrorKind = "CONFLICT"
	ErrorKindExpired      ErrorKind = "EXPIRED"
	ErrorKindIO           ErrorKind = "IO_ERROR"
	ErrorKindInternal     ErrorKind = "INTERNAL_ERROR"
)

func (k ErrorKind) StatusCode() int {
	switch k {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case ErrorKindForbidden:
		return http.StatusForbidden
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindConflict:
		return http.StatusConflict
	case ErrorKindExpired:
		return http.StatusGone
	case ErrorKindIO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the error type the services return. It implements the
// error interface and unwraps to the underlying cause.
type APIError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func WrapAPIError(kind ErrorKind, message string, cause error) *APIError {
	return &APIError{Kind: kind, Message: message, cause: cause}
}

// ErrorKindOf returns the kind of err, or ErrorKindInternal when err does
// not carry one.
func ErrorKindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ErrorKindInternal
}

// ToHTTPError converts any error into an echo HTTPError with a stable
// {code, message} body. Unknown errors become 500 without leaking the
// internal message.
func ToHTTPError(err error) *echo.HTTPError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return echo.NewHTTPError(apiErr.Kind.StatusCode(), echo.Map{
			"code":    string(apiErr.Kind),
			"message": apiErr.Message,
		}).WithInternal(err)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{
		"code":    string(ErrorKindInternal),
		"message": "internal server error",
	}).WithInternal(err)
}
