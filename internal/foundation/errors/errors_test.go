package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "mediaindex.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "mediaindex.yaml" {
			t.Errorf("expected context file=mediaindex.yaml, got %v", file)
		}
	})

	t.Run("Error string", func(t *testing.T) {
		plain := FileSystemError("write index").Build()
		if got := plain.Error(); got != "[filesystem:fatal] write index" {
			t.Errorf("unexpected error string %q", got)
		}
		wrapped := WrapError(fmt.Errorf("disk full"), CategoryFileSystem, "write index").Build()
		if got := wrapped.Error(); got != "[filesystem:error] write index: disk full" {
			t.Errorf("unexpected error string %q", got)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("media dir missing").Build()

		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})
}

func TestAsClassifiedFollowsWrapChain(t *testing.T) {
	inner := NetworkError("fetch failed").Build()
	outer := fmt.Errorf("seeding: %w", inner)

	got, ok := AsClassified(outer)
	if !ok {
		t.Fatal("expected classified error in chain")
	}
	if got != inner {
		t.Errorf("expected the inner error to be returned")
	}
	if GetCategory(outer) != CategoryNetwork {
		t.Errorf("expected network category, got %s", GetCategory(outer))
	}
	if GetCategory(errors.New("plain")) != CategoryInternal {
		t.Errorf("plain errors should map to internal")
	}
	if GetSeverity(errors.New("plain")) != SeverityError {
		t.Errorf("plain errors should map to error severity")
	}
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("connection reset")
	err := WrapError(originalErr, CategoryNetwork, "network failure").
		Warning().
		Retryable().
		WithContext("url", "https://example.test/0").
		Build()

	if !errors.Is(err, originalErr) {
		t.Error("expected wrapped error to match cause")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("expected warning severity, got %s", err.Severity())
	}
	if !err.CanRetry() {
		t.Error("expected retryable error")
	}
	if url, _ := err.Context().GetString("url"); url != "https://example.test/0" {
		t.Errorf("unexpected url context %q", url)
	}
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := TemplateError("render failed").Build()
	derived := base.WithContext("template", "gallery.html")

	if _, ok := base.Context().Get("template"); ok {
		t.Error("original error context must not change")
	}
	if name, _ := derived.Context().GetString("template"); name != "gallery.html" {
		t.Errorf("expected derived context, got %q", name)
	}
	if !errors.Is(derived, base) {
		t.Error("derived error should match base by category and message")
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "shared": "left"}
	b := ErrorContext{"b": 2, "shared": "right"}
	merged := a.Merge(b)

	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("merge lost keys: %v", merged)
	}
	if merged["shared"] != "right" {
		t.Errorf("expected right side to win, got %v", merged["shared"])
	}
	var nilCtx ErrorContext
	if got := nilCtx.Merge(b); got["b"] != 2 {
		t.Errorf("nil merge should return other")
	}
}
