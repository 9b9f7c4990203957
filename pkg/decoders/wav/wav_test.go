package wav

import "testing"

func TestNewDecoder(t *testing.T) {
	if NewDecoder() == nil {
		t.Fatal("NewDecoder returned nil")
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

func TestOpenMissingFile(t *testing.T) {
	decoder := NewDecoder()
	if err := decoder.Open("/nonexistent/path.wav"); err == nil {
		t.Error("expected error opening a missing file")
	}
}
