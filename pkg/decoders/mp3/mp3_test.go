package mp3

import "testing"

func TestNewDecoder(t *testing.T) {
	if NewDecoder() == nil {
		t.Fatal("NewDecoder returned nil")
	}
}

func TestFormatBeforeOpen(t *testing.T) {
	decoder := NewDecoder()
	rate, channels, frames := decoder.Format()
	if rate != 0 || channels != 2 || frames != 0 {
		t.Errorf("expected rate=0 channels=2 frames=0 before Open, got rate=%d channels=%d frames=%d",
			rate, channels, frames)
	}
}

func TestOpenMissingFile(t *testing.T) {
	decoder := NewDecoder()
	if err := decoder.Open("/nonexistent/path.mp3"); err == nil {
		t.Error("expected error opening a missing file")
	}
}
