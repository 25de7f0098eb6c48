package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrRemote, "library", "set profile", "status 401", nil)
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote marker, got %v", err)
	}
	if errors.Is(err, ErrTransient) {
		t.Fatal("unexpected transient marker")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrTransient, "fetch", "get", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected default transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrConfiguration, "sweep", "resolve profiles", "missing tier", nil)) {
		t.Error("configuration errors should be fatal")
	}
	if IsFatal(Wrap(ErrRemote, "library", "update", "", nil)) {
		t.Error("remote rejections should stay at the item boundary")
	}
}
