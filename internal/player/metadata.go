package player

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/dhowden/tag"
	"github.com/lucasb-eyer/go-colorful"
)

// ExtractMetadata is the exported form of extractMetadata, for callers
// (the probe CLI command) that want a track's tag snapshot without
// opening a full FileStream.
func ExtractMetadata(path string) *Metadata { return extractMetadata(path) }

// extractMetadata reads ID3/Vorbis-comment/FLAC-tag metadata from path and
// builds the immutable Metadata snapshot a FileStream hands its manager.
// Any failure to open or parse tags falls back to a filename-derived title
// and a deterministic fallback_color; it never returns an error, since a
// missing cover or absent tags are not open failures.
func extractMetadata(path string) *Metadata {
	md := &Metadata{
		Title:         filenameWithoutExt(path),
		FallbackColor: fallbackColor(path),
	}

	f, err := os.Open(path)
	if err != nil {
		return md
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return md
	}

	if m.Title() != "" {
		md.Title = m.Title()
	}
	md.Artist = m.Artist()

	if pic := m.Picture(); pic != nil {
		md.HasCover = true
		md.CoverMediaType = pic.MIMEType
		md.CoverData = pic.Data
	}

	return md
}

func filenameWithoutExt(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// fallbackColor derives a stable "rgba(r,g,b,a)" string from the track's
// parent directory, so files lacking embedded art still get a consistent
// per-album placeholder color instead of a random one on every open.
func fallbackColor(path string) string {
	dir := filepath.Dir(path)
	h := xxhash.Sum64String(dir)

	hue := float64(h%360) / 360.0 * 360.0
	c := colorful.Hsv(hue, 0.55, 0.85)
	r, g, b := c.Clamped().RGB255()

	return fmt.Sprintf("rgba(%d,%d,%d,1)", r, g, b)
}
