package ogg

import "testing"

func TestNewDecoder(t *testing.T) {
	if NewDecoder() == nil {
		t.Fatal("NewDecoder returned nil")
	}
}

func TestOpenMissingFile(t *testing.T) {
	decoder := NewDecoder()
	if err := decoder.Open("/nonexistent/path.ogg"); err == nil {
		t.Error("expected error opening a missing file")
	}
}

func TestDecodePacketWithoutOpen(t *testing.T) {
	decoder := NewDecoder()
	if _, err := decoder.DecodePacket(); err == nil {
		t.Error("expected error decoding without opening file")
	}
}
