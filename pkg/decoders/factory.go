// Package decoders provides a by-extension factory over the format
// decoders in its subpackages.
package decoders

import (
	"path/filepath"
	"strings"

	"github.com/drgolem/directoryplayer/pkg/decoders/flac"
	"github.com/drgolem/directoryplayer/pkg/decoders/mp3"
	"github.com/drgolem/directoryplayer/pkg/decoders/ogg"
	"github.com/drgolem/directoryplayer/pkg/decoders/wav"
	"github.com/drgolem/directoryplayer/pkg/types"
)

// SupportedExtensions lists the lowercase, dot-prefixed extensions
// NewDecoder recognizes, for callers that need to filter a directory
// listing before opening anything.
var SupportedExtensions = []string{".mp3", ".flac", ".fla", ".wav", ".ogg"}

// IsSupportedExtension reports whether ext (as returned by filepath.Ext)
// is one NewDecoder can open, case-insensitively.
func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// NewDecoder creates and opens the appropriate decoder based on file
// extension. Supports .mp3, .flac, .fla, .wav and .ogg. Returns a
// types.OpenError of kind OpenErrorCodec on an unrecognized extension, and
// of kind OpenErrorIO on any failure of the decoder's Open; a missing file
// and a file that exists but cannot be parsed are not told apart.
func NewDecoder(fileName string) (types.AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var decoder types.AudioDecoder
	switch ext {
	case ".mp3":
		decoder = mp3.NewDecoder()
	case ".flac", ".fla":
		decoder = flac.NewDecoder()
	case ".wav":
		decoder = wav.NewDecoder()
	case ".ogg":
		decoder = ogg.NewDecoder()
	default:
		return nil, &types.OpenError{Kind: types.OpenErrorCodec, Path: fileName,
			Err: unsupportedFormatError(ext)}
	}

	if err := decoder.Open(fileName); err != nil {
		return nil, &types.OpenError{Kind: types.OpenErrorIO, Path: fileName, Err: err}
	}

	return decoder, nil
}

type unsupportedFormatError string

func (e unsupportedFormatError) Error() string {
	return "unsupported file format: " + string(e) + " (supported: .mp3, .flac, .fla, .wav, .ogg)"
}
