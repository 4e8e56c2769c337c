package speech_to_text

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestNew_ValidatesConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("nil config", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty model path", func(t *testing.T) {
		if _, err := New(&Config{Logger: logger}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("nil logger", func(t *testing.T) {
		if _, err := New(&Config{ModelPath: "model"}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestSession_Bytes(t *testing.T) {
	session := &sessionImpl{}

	got := session.bytes([]int16{0, 1, -1, 256, -32768, 32767})
	expected := []byte{
		0x00, 0x00,
		0x01, 0x00,
		0xff, 0xff,
		0x00, 0x01,
		0x00, 0x80,
		0xff, 0x7f,
	}

	if !bytes.Equal(got, expected) {
		t.Errorf("expected % x, got % x", expected, got)
	}

	t.Run("scratch buffer is reused", func(t *testing.T) {
		first := session.bytes([]int16{1, 2, 3})
		second := session.bytes([]int16{4})

		if len(second) != 2 {
			t.Fatalf("expected 2 bytes, got %d", len(second))
		}
		if &first[0] != &second[0] {
			t.Error("expected both conversions to share the scratch buffer")
		}
	})
}
