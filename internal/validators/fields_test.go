package validators

import (
	"strings"
	"testing"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
)

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"accented name", Name("name", "José Ñandú"), ""},
		{"name with digits", Name("name", "Ana2"), "name_invalid"},
		{"long name", Name("name", strings.Repeat("a", 51)), "name_too_long"},
		{"phone", Digits("phone", "1155550000"), ""},
		{"phone with spaces", Digits("phone", "11 5555"), "phone_invalid"},
		{"long phone", Digits("phone", strings.Repeat("1", 16)), "phone_too_long"},
		{"reason", Text("reason", "Vacaciones, vuelvo el 3-7."), ""},
		{"reason with symbols", Text("reason", "cerrado!"), "reason_invalid"},
		{"long reason", Text("reason", strings.Repeat("x", 101)), "reason_too_long"},
		{"blank", Required("name", "   "), "name_required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code == "" {
				if tt.err != nil {
					t.Fatalf("unexpected error: %v", tt.err)
				}
				return
			}
			if !httperr.IsBusiness(tt.err, tt.code) {
				t.Fatalf("err = %v, want code %s", tt.err, tt.code)
			}
			if !httperr.Is(tt.err, httperr.KindValidation) {
				t.Fatalf("kind = %s", httperr.KindOf(tt.err))
			}
		})
	}
}
