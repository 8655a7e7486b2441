package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Predictor.infer")
		panic("mat: dimension mismatch")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "Predictor.infer" {
		t.Errorf("Expected operation 'Predictor.infer', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if got, want := panicErr.Error(), "panic in Predictor.infer: mat: dimension mismatch"; got != want {
		t.Errorf("Expected error message '%s', got '%s'", want, got)
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Predictor.infer")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "Predictor.infer")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic with existing error, got nil")
	}
	if !strings.Contains(err.Error(), "panic in Predictor.infer") {
		t.Errorf("Error message should contain panic info: %s", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("Should be able to identify original error with errors.Is")
	}
}

func TestSafeExecute(t *testing.T) {
	if err := SafeExecute("noop", func() error { return nil }); err != nil {
		t.Fatalf("Expected no error for successful operation, got: %v", err)
	}

	originalErr := fmt.Errorf("function error")
	if err := SafeExecute("failing", func() error { return originalErr }); err != originalErr {
		t.Fatalf("Expected original error, got: %v", err)
	}

	err := SafeExecute("panicking", func() error { panic("boom") })
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
}

func TestSafeFloat(t *testing.T) {
	v, err := SafeFloat("ok", func() (float64, error) { return 42.5, nil })
	if err != nil || v != 42.5 {
		t.Fatalf("Expected 42.5 without error, got %v, %v", v, err)
	}

	_, err = SafeFloat("panicking", func() (float64, error) {
		var s []float64
		return s[3], nil
	})
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError from index panic, got %T", err)
	}
	if panicErr.Operation != "panicking" {
		t.Errorf("Expected operation 'panicking', got '%s'", panicErr.Operation)
	}
}

func TestPanicError_String(t *testing.T) {
	panicErr := NewPanicError("TestOp", "test value")

	str := panicErr.String()
	if !strings.Contains(str, "Stack trace:") {
		t.Error("String() should include stack trace information")
	}
	if !strings.Contains(str, "panic in TestOp: test value") {
		t.Error("String() should include basic error information")
	}
}

func BenchmarkSafeFloat_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = SafeFloat("BenchmarkOp", func() (float64, error) {
			return 1, nil
		})
	}
}
