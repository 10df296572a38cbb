package clipboard

import (
	"errors"
	"testing"
)

func TestServiceCopyDelegatesToWriter(t *testing.T) {
	var captured string
	service := &Service{write: func(text string) error {
		captured = text
		return nil
	}}
	if err := service.Copy("/a\t94853\n"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if captured != "/a\t94853\n" {
		t.Fatalf("unexpected clipboard content %q", captured)
	}
}

func TestServiceCopyWrapsWriterError(t *testing.T) {
	failure := errors.New("xclip missing")
	service := &Service{write: func(string) error { return failure }}
	err := service.Copy("text")
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}
