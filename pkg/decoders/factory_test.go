package decoders

import (
	"errors"
	"testing"

	"github.com/drgolem/directoryplayer/pkg/types"
)

func TestNewDecoderUnsupportedExtension(t *testing.T) {
	_, err := NewDecoder("track.aac")
	if err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
	var openErr *types.OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected a *types.OpenError, got %T", err)
	}
	if openErr.Kind != types.OpenErrorCodec {
		t.Errorf("expected OpenErrorCodec, got %v", openErr.Kind)
	}
}

func TestNewDecoderMissingFile(t *testing.T) {
	_, err := NewDecoder("/nonexistent/path.flac")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var openErr *types.OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected a *types.OpenError, got %T", err)
	}
	if openErr.Kind != types.OpenErrorIO {
		t.Errorf("expected OpenErrorIO, got %v", openErr.Kind)
	}
}
