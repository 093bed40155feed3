//go:build js && wasm

package browser

import (
	"syscall/js"
	"testing"

	"github.com/matzehuels/visualobserver/pkg/errors"
)

func jsError(class, message string) js.Error {
	return js.Error{Value: js.Global().Get(class).New(message)}
}

func TestConstructorError(t *testing.T) {
	tests := []struct {
		name  string
		panic any
		code  errors.Code
	}{
		{"syntax error is a bad margin", jsError("SyntaxError", "rootMargin must be specified in pixels or percent"), errors.ErrCodeInvalidMargin},
		{"type error is bad input", jsError("TypeError", "Failed to construct 'IntersectionObserver'"), errors.ErrCodeInvalidInput},
		{"other js error", jsError("RangeError", "threshold out of range"), errors.ErrCodeInternal},
		{"go panic", "boom", errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetCode(constructorError(tt.panic)); got != tt.code {
				t.Errorf("constructorError() code = %v, want %v", got, tt.code)
			}
		})
	}
}
