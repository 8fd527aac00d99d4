package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the dashboard reacts to it.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindConflict   Kind = "conflict_error"
	KindNetwork    Kind = "network_error"
	KindServer     Kind = "server_error"
	KindAuth       Kind = "auth_error"
)

type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e BusinessError) Unwrap() error {
	return e.Err
}

// ErrBusiness is a validation error identified only by its code.
func ErrBusiness(code string) error {
	return BusinessError{Kind: KindValidation, Code: code}
}

func ErrValidation(code, message string) error {
	return BusinessError{Kind: KindValidation, Code: code, Message: message}
}

func ErrConflict(code, message string) error {
	return BusinessError{Kind: KindConflict, Code: code, Message: message}
}

func ErrNetwork(err error) error {
	return BusinessError{
		Kind:    KindNetwork,
		Code:    "network_error",
		Message: "No se pudo conectar con el servidor.",
		Err:     err,
	}
}

func ErrServer(status int, message string) error {
	if message == "" {
		message = fmt.Sprintf("Error del servidor: %d", status)
	}
	return BusinessError{Kind: KindServer, Code: "server_error", Message: message}
}

func ErrAuth(message string) error {
	if message == "" {
		message = "Sesión expirada. Inicie sesión nuevamente."
	}
	return BusinessError{Kind: KindAuth, Code: "unauthorized", Message: message}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// KindOf returns the kind of err; unknown errors count as server errors.
func KindOf(err error) Kind {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindServer
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the business code of err, or "" when err carries none.
func CodeOf(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// MessageOf returns a user-facing message for err.
func MessageOf(err error) string {
	var be BusinessError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return "Ocurrió un error inesperado."
}
