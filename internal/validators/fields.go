package validators

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
)

const (
	MaxNameLength   = 50
	MaxDigitsLength = 15
	MaxTextLength   = 100
)

var (
	nameRe   = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ\s]*$`)
	digitsRe = regexp.MustCompile(`^[0-9]*$`)
	textRe   = regexp.MustCompile(`^[a-zA-Z0-9áéíóúÁÉÍÓÚñÑüÜ\s.,-]*$`)
)

// Required rejects empty and whitespace-only values.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return httperr.ErrValidation(field+"_required", "Este campo es obligatorio")
	}
	return nil
}

// Name allows letters, accents and spaces.
func Name(field, value string) error {
	if !nameRe.MatchString(value) {
		return httperr.ErrValidation(field+"_invalid", "Solo se permiten letras")
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return httperr.ErrValidation(field+"_too_long", fmt.Sprintf("Máximo %d caracteres", MaxNameLength))
	}
	return nil
}

func Digits(field, value string) error {
	if !digitsRe.MatchString(value) {
		return httperr.ErrValidation(field+"_invalid", "Solo se permiten números")
	}
	if len(value) > MaxDigitsLength {
		return httperr.ErrValidation(field+"_too_long", fmt.Sprintf("Máximo %d dígitos", MaxDigitsLength))
	}
	return nil
}

// Text is for short free-form notes such as a block reason.
func Text(field, value string) error {
	if !textRe.MatchString(value) {
		return httperr.ErrValidation(field+"_invalid", "Solo letras, números y ., -")
	}
	if utf8.RuneCountInString(value) > MaxTextLength {
		return httperr.ErrValidation(field+"_too_long", fmt.Sprintf("Máximo %d caracteres", MaxTextLength))
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
