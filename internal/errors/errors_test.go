package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ErrorType Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "unknown"},
		{InvalidURL, "invalid_url"},
		{FetchFailed, "fetch_failed"},
		{MalformedReference, "malformed_reference"},
		{Parse, "parse"},
		{Cancelled, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// ResolveError Tests
// =============================================================================

func TestInvalidURLError_Message(t *testing.T) {
	err := NewInvalidURLError("https://steamcommunity.com/app/108600/workshop/")

	if err.Error() != "Invalid workshop browser link." {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsType(err, InvalidURL) {
		t.Error("IsType(InvalidURL) = false")
	}
}

func TestResolveError_WithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewFetchError("https://example.com/?id=1", cause)

	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %s, should contain cause", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
	if !err.Retryable {
		t.Error("connection refused should be retryable")
	}
	if err.Description() != "connection refused" {
		t.Errorf("Description() = %q", err.Description())
	}
}

func TestResolveError_Is(t *testing.T) {
	err1 := NewStatusError("https://a.example/?id=1", 404, "404 Not Found")
	err2 := NewFetchError("https://b.example/?id=2", errors.New("boom"))
	err3 := NewInvalidURLError("https://a.example")

	if !errors.Is(err1, err2) {
		t.Error("errors with same type should match")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different types should not match")
	}
}

func TestCategorizeHTTPStatus(t *testing.T) {
	tests := []struct {
		code      int
		status    string
		wantNil   bool
		retryable bool
		desc      string
	}{
		{200, "200 OK", true, false, ""},
		{204, "204 No Content", true, false, ""},
		{404, "404 Not Found", false, false, "404 Not Found"},
		{429, "", false, true, "429 Too Many Requests"},
		{503, "503 Service Unavailable", false, true, "503 Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := CategorizeHTTPStatus(tt.code, tt.status, "https://example.com")
			if tt.wantNil {
				if err != nil {
					t.Fatalf("CategorizeHTTPStatus(%d) = %v, want nil", tt.code, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("CategorizeHTTPStatus(%d) = nil", tt.code)
			}
			if err.Type != FetchFailed {
				t.Errorf("Type = %v, want FetchFailed", err.Type)
			}
			if err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
			if err.Description() != tt.desc {
				t.Errorf("Description() = %q, want %q", err.Description(), tt.desc)
			}
			if err.Error() != MsgFetchFailed+": "+tt.desc {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	if Categorize(nil, "u") != nil {
		t.Error("Categorize(nil) should be nil")
	}

	existing := NewInvalidURLError("u")
	if Categorize(fmt.Errorf("wrapped: %w", existing), "u") != existing {
		t.Error("Categorize should unwrap an existing ResolveError")
	}

	if got := Categorize(context.Canceled, "u"); got.Type != Cancelled {
		t.Errorf("context.Canceled categorized as %v", got.Type)
	}

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	got := Categorize(opErr, "u")
	if got.Type != FetchFailed || !got.Retryable {
		t.Errorf("net.OpError categorized as %v retryable=%v", got.Type, got.Retryable)
	}

	plain := Categorize(errors.New("unsupported protocol scheme"), "u")
	if plain.Retryable {
		t.Error("plain error should not be retryable")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(errors.New("plain")); got != "plain" {
		t.Errorf("Describe(plain) = %q", got)
	}
	if got := Describe(NewStatusError("u", 500, "500 Internal Server Error")); got != "500 Internal Server Error" {
		t.Errorf("Describe(status) = %q", got)
	}
}

// =============================================================================
// Retrier Tests
// =============================================================================

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrier(RetryConfig{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	})
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	r := fastRetrier(3)
	calls := 0

	attempts, err := r.Do(context.Background(), "u", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewStatusError("u", 503, "")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetrier_StopsOnPermanentError(t *testing.T) {
	r := fastRetrier(3)

	attempts, err := r.Do(context.Background(), "u", func(ctx context.Context) error {
		return NewStatusError("u", 404, "")
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if GetErrorType(err) != FetchFailed {
		t.Errorf("err = %v, want FetchFailed", err)
	}
}

func TestRetrier_ExhaustsRetries(t *testing.T) {
	r := fastRetrier(2)

	attempts, err := r.Do(context.Background(), "u", func(ctx context.Context) error {
		return NewStatusError("u", 502, "")
	})

	if err == nil || attempts != 3 {
		t.Errorf("err = %v, attempts = %d, want error after 3", err, attempts)
	}
}

func TestRetrier_Cancelled(t *testing.T) {
	r := fastRetrier(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Do(ctx, "u", func(ctx context.Context) error {
		return NewStatusError("u", 503, "")
	})

	if GetErrorType(err) != Cancelled {
		t.Errorf("error type = %v, want Cancelled", GetErrorType(err))
	}
}

func TestRetrier_Backoff(t *testing.T) {
	r := NewRetrier(RetryConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     35 * time.Millisecond,
		Multiplier:   2,
	})

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 0},
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 35 * time.Millisecond},
		{8, 35 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := r.Backoff(tt.n); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestRetrier_BackoffJitterBounds(t *testing.T) {
	r := NewRetrier(RetryConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 1, Jitter: 0.2})

	for i := 0; i < 50; i++ {
		d := r.Backoff(1)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("Backoff(1) = %v, outside 80-120ms", d)
		}
	}
}

func TestRetry(t *testing.T) {
	r := fastRetrier(1)

	value, err := Retry(context.Background(), r, "u", func(ctx context.Context) (string, error) {
		return "body", nil
	})

	if err != nil || value != "body" {
		t.Errorf("value = %q, err = %v", value, err)
	}
}

func TestNewCancelledError(t *testing.T) {
	err := NewCancelledError("u", "fetch", context.DeadlineExceeded)

	if err.Error() != MsgFetchFailed+": context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause should unwrap to context.DeadlineExceeded")
	}
	if Describe(err) != "context deadline exceeded" {
		t.Errorf("Describe() = %q", Describe(err))
	}

	if def := NewCancelledError("u", "fetch", nil); !errors.Is(def, context.Canceled) {
		t.Error("nil cause should default to context.Canceled")
	}
}
