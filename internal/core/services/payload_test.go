package services

import (
	"bytes"
	"math"
	"testing"
)

func TestCastInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected []int16
	}{
		{"integers", []float64{0, 1, -1, 1234}, []int16{0, 1, -1, 1234}},
		{"truncates toward zero", []float64{2.9, -2.9}, []int16{2, -2}},
		{"saturates", []float64{40000, -40000, 32767, -32768}, []int16{32767, -32768, 32767, -32768}},
		{"nan becomes nodata", []float64{math.NaN(), 5}, []int16{-9999, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CastInt16(tt.input, -9999)
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("sample %d = %d, want %d", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestEncodeInt16BE_ByteLayout(t *testing.T) {
	got := EncodeInt16BE([]int16{1, -9999, 0x1234})
	want := []byte{0x00, 0x01, 0xD8, 0xF1, 0x12, 0x34}

	if !bytes.Equal(got, want) {
		t.Errorf("EncodeInt16BE = % X, want % X", got, want)
	}
}

func TestWritePayload_MatchesEncode(t *testing.T) {
	samples := []int16{-32768, -1, 0, 1, 32767, -9999}

	var buf bytes.Buffer
	if err := WritePayload(&buf, samples); err != nil {
		t.Fatalf("WritePayload: %v", err)
	}

	if !bytes.Equal(buf.Bytes(), EncodeInt16BE(samples)) {
		t.Error("WritePayload and EncodeInt16BE disagree")
	}
	if buf.Len() != 2*len(samples) {
		t.Errorf("payload length = %d, want %d", buf.Len(), 2*len(samples))
	}
}

func TestWritePayload_SpansChunks(t *testing.T) {
	samples := make([]int16, 2*payloadChunk+3)
	for i := range samples {
		samples[i] = int16(i)
	}

	var buf bytes.Buffer
	if err := WritePayload(&buf, samples); err != nil {
		t.Fatalf("WritePayload: %v", err)
	}

	decoded, err := DecodeInt16BE(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeInt16BE: %v", err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	for _, i := range []int{0, payloadChunk - 1, payloadChunk, 2 * payloadChunk, len(samples) - 1} {
		if decoded[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestDecodeInt16BE_RoundTrip(t *testing.T) {
	samples := []int16{-32768, -9999, -1, 0, 1, 255, 256, 32767}

	decoded, err := DecodeInt16BE(EncodeInt16BE(samples))
	if err != nil {
		t.Fatalf("DecodeInt16BE: %v", err)
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestDecodeInt16BE_OddLength(t *testing.T) {
	if _, err := DecodeInt16BE([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for odd payload length")
	}
}
