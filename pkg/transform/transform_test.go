package transform

import (
	"bytes"
	"testing"
	"time"
)

func TestTransformPassesRecordThrough(t *testing.T) {
	tr := New("cat", nil, time.Second, []byte("\n"))
	out, err := tr([]byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, []byte("hello")) {
		t.Fatalf("got %q, want %q", out, "hello")
	}
}

func TestTransformRejectsMultipleRecords(t *testing.T) {
	tr := New("printf", []string{"a\nb"}, time.Second, []byte("\n"))
	_, err := tr([]byte("ignored"))
	if err == nil {
		t.Fatalf("expected framing error for multi-record output")
	}
}

func TestTransformTimesOut(t *testing.T) {
	tr := New("sleep", []string{"5"}, 10*time.Millisecond, nil)
	_, err := tr([]byte("x"))
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}
