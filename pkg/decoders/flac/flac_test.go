package flac

import "testing"

func TestNewDecoder(t *testing.T) {
	decoder := NewDecoder()
	if decoder == nil {
		t.Fatal("NewDecoder returned nil")
	}
}

func TestFormatBeforeOpen(t *testing.T) {
	decoder := NewDecoder()
	rate, channels, frames := decoder.Format()
	if rate != 0 || channels != 0 || frames != 0 {
		t.Errorf("expected zero values before Open, got rate=%d channels=%d frames=%d",
			rate, channels, frames)
	}
}

func TestDecodePacketWithoutOpen(t *testing.T) {
	decoder := NewDecoder()
	if _, err := decoder.DecodePacket(); err == nil {
		t.Error("expected error decoding without opening file")
	}
}

func TestCloseIdempotent(t *testing.T) {
	decoder := NewDecoder()
	if err := decoder.Close(); err != nil {
		t.Errorf("close on unopened decoder failed: %v", err)
	}
	if err := decoder.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
