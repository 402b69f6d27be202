package audio

import (
	"testing"
)

func TestDecodePCM16(t *testing.T) {
	// Little-endian: 0x0001, 0xFFFF (-1), 0x7FFF (max)
	data := []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0x7F}
	samples, err := DecodePCM16(data)
	if err != nil {
		t.Fatalf("DecodePCM16 failed: %v", err)
	}
	want := []int16{1, -1, 32767}
	if len(samples) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(samples))
	}
	for i, s := range samples {
		if s != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], s)
		}
	}
}

func TestDecodePCM16_OddLength(t *testing.T) {
	if _, err := DecodePCM16([]byte{0x01, 0x00, 0xFF}); err == nil {
		t.Error("Expected error for odd-length input")
	}
}

func TestDecodePCM16_Empty(t *testing.T) {
	if _, err := DecodePCM16(nil); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestCalculateRMS(t *testing.T) {
	samples := []int16{1000, -1000, 2000, -2000}
	rms := CalculateRMS(samples)

	// sqrt((1000^2 + 1000^2 + 2000^2 + 2000^2) / 4) ~= 1581.14
	expected := 1581.14
	tolerance := 1.0
	if rms < expected-tolerance || rms > expected+tolerance {
		t.Errorf("Expected RMS around %.2f, got %.2f", expected, rms)
	}
}

func TestCalculateRMS_Empty(t *testing.T) {
	if rms := CalculateRMS(nil); rms != 0 {
		t.Errorf("Expected 0 RMS for empty input, got %f", rms)
	}
}

func TestNormalizeLevel(t *testing.T) {
	if level := NormalizeLevel(0); level != 0 {
		t.Errorf("Expected 0 for silent input, got %f", level)
	}
	if level := NormalizeLevel(4000); level != 0.5 {
		t.Errorf("Expected 0.5, got %f", level)
	}
	// Loud input saturates at 1.0.
	if level := NormalizeLevel(20000); level != 1.0 {
		t.Errorf("Expected level capped at 1.0, got %f", level)
	}
}

func TestDetectSilence(t *testing.T) {
	if DetectSilence([]int16{5000, 5000, 5000}, 1000.0) {
		t.Error("Expected high energy samples to not be silence")
	}
	if !DetectSilence([]int16{10, 10, 10}, 1000.0) {
		t.Error("Expected low energy samples to be silence")
	}
}
