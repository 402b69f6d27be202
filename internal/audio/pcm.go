package audio

import (
	"fmt"
	"math"
)

// DecodePCM16 converts little-endian 16-bit PCM bytes to samples
func DecodePCM16(data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty PCM data")
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, nil
}

// CalculateRMS calculates the root mean square (RMS) of audio samples.
// Useful for detecting audio levels and silence.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// NormalizeLevel maps an RMS value to a 0..1 display level for the client's
// microphone indicator. The divisor approximates a loud speaking voice on a
// consumer microphone.
func NormalizeLevel(rms float64) float64 {
	const loudRMS = 8000.0
	level := rms / loudRMS
	if level > 1.0 {
		return 1.0
	}
	return level
}

// DetectSilence detects if audio samples represent silence using a simple
// energy threshold
func DetectSilence(samples []int16, threshold float64) bool {
	return CalculateRMS(samples) < threshold
}
