package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"business code", ErrBusiness("invalid_state"), KindValidation},
		{"conflict", ErrConflict("overlaps-block", "x"), KindConflict},
		{"network", ErrNetwork(errors.New("dial tcp")), KindNetwork},
		{"server", ErrServer(503, ""), KindServer},
		{"auth", ErrAuth(""), KindAuth},
		{"wrapped", fmt.Errorf("submit: %w", ErrConflict("too-soon", "")), KindConflict},
		{"plain error", errors.New("boom"), KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsBusiness(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrBusiness("invalid_state"))
	if !IsBusiness(err, "invalid_state") {
		t.Error("expected wrapped business error to match its code")
	}
	if IsBusiness(err, "other") {
		t.Error("unexpected match on a different code")
	}
	if IsBusiness(errors.New("invalid_state"), "invalid_state") {
		t.Error("plain errors must not match")
	}
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrNetwork(cause)
	if !errors.Is(err, cause) {
		t.Error("network error should unwrap to its cause")
	}
}

func TestStatusOf(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindConflict:   http.StatusConflict,
		KindNetwork:    http.StatusBadGateway,
		KindServer:     http.StatusInternalServerError,
		KindAuth:       http.StatusUnauthorized,
	}
	for kind, want := range cases {
		if got := StatusOf(kind); got != want {
			t.Errorf("StatusOf(%q) = %d, want %d", kind, got, want)
		}
	}
}

func TestMessageOfFallback(t *testing.T) {
	if got := MessageOf(ErrConflict("x", "Horario ocupado.")); got != "Horario ocupado." {
		t.Errorf("MessageOf() = %q", got)
	}
	if got := MessageOf(errors.New("boom")); got == "" {
		t.Error("MessageOf() should never be empty")
	}
}
