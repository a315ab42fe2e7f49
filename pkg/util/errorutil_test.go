package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestIsCode(t *testing.T) {
	err := NewAlreadyClaimed("u9")
	if !IsCode(err, "ALREADY_CLAIMED") {
		t.Fatal("IsCode should match the error's code")
	}
	if IsCode(err, "NOT_FOUND") {
		t.Fatal("IsCode should reject a different code")
	}
	if IsCode(nil, "NOT_FOUND") {
		t.Fatal("IsCode(nil) should be false")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsCode(wrapped, "ALREADY_CLAIMED") {
		t.Fatal("IsCode should see through wrapping")
	}
}

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	err := NewRateLimited(42 * time.Second)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatal("expected a DomainError")
	}
	if domainErr.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", domainErr.HTTPStatus)
	}
	if got := domainErr.Details["retry_after_seconds"]; got != 43 {
		t.Fatalf("retry_after_seconds = %v, want 43", got)
	}
}

func TestToDomainError(t *testing.T) {
	if got := ToDomainError(pgx.ErrNoRows); got.Code != "NOT_FOUND" {
		t.Fatalf("pgx.ErrNoRows mapped to %s, want NOT_FOUND", got.Code)
	}

	original := NewUnauthorized("nope")
	if got := ToDomainError(original); got.Code != "UNAUTHORIZED" {
		t.Fatalf("existing domain error remapped to %s", got.Code)
	}

	if got := ToDomainError(errors.New("boom")); got.Code != "INTERNAL_ERROR" {
		t.Fatalf("opaque error mapped to %s, want INTERNAL_ERROR", got.Code)
	}
}
