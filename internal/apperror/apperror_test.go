package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(KindConflict, "slot %d is full", 7)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("errors.Is(%v, ErrConflict) = false, want true", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(%v, ErrNotFound) = true, want false", err)
	}
	wrapped := fmt.Errorf("create: %w", err)
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("KindOf(wrapped) = %v, want conflict", KindOf(wrapped))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("lock wait timeout")
	err := Wrap(KindTransientStore, cause, "reserve slot")
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable through errors.Is")
	}
	if !IsRetryable(err) {
		t.Fatal("transient store error should be retryable")
	}
	if got, want := err.Error(), "reserve slot: lock wait timeout"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf(foreign) = %v, want internal", got)
	}
	if IsRetryable(errors.New("boom")) {
		t.Fatal("foreign error should not be retryable")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindQuotaExceeded:  http.StatusTooManyRequests,
		KindInvalidState:   http.StatusUnprocessableEntity,
		KindDeadlinePassed: http.StatusUnprocessableEntity,
		KindUnauthorized:   http.StatusForbidden,
		KindTransientStore: http.StatusServiceUnavailable,
		KindValidation:     http.StatusBadRequest,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%v.HTTPStatus() = %d, want %d", kind, got, want)
		}
	}
}
