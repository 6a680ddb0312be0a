package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("i2c nack")
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", ParseFailure, ParseFailure},
		{"wrapped E", New(SensorFault, "measure", cause), SensorFault},
		{"E behind fmt wrap", fmt.Errorf("tick: %w", New(FetchFailure, "fetch", cause)), FetchFailure},
		{"plain error", cause, Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.err); got != tt.want {
				t.Errorf("Of: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("weather: %w", New(NetworkUnavailable, "join", nil))
	if !errors.Is(err, NetworkUnavailable) {
		t.Error("expected errors.Is to match NetworkUnavailable")
	}
	if errors.Is(err, ParseFailure) {
		t.Error("did not expect errors.Is to match ParseFailure")
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(FetchFailure, "fetch", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestErrorString(t *testing.T) {
	e := &E{C: ParseFailure, Op: "parse", Msg: "not an object"}
	if got, want := e.Error(), "parse: parse_failure: not an object"; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
}
