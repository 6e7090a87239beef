package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("row not found")
	err := Wrap(CodeNotFound, cause, "inventory missing")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}
	if err.Code() != CodeNotFound {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsThroughFmtWrap(t *testing.T) {
	t.Parallel()

	inner := New(CodeStateConflict, "trade already finalized")
	outer := fmt.Errorf("accepting trade: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through wrap chain")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
}

func TestIs(t *testing.T) {
	t.Parallel()

	if !Is(New(CodeValidation, "bad split amount"), CodeValidation) {
		t.Fatal("expected Is to match code")
	}
	if Is(stdErrors.New("plain"), CodeValidation) {
		t.Fatal("expected plain error not to match")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}

	if MetadataFor(CodeValidation).HTTPStatus != http.StatusBadRequest {
		t.Fatal("expected 400 for validation")
	}
}
