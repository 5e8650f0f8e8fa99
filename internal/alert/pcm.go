package alert

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// Tone renders two consecutive sine notes as 16-bit little-endian mono
// PCM, each note lasting d, with a short fade to avoid clicks.
func Tone(first, second float64, d time.Duration) []byte {
	n := int(float64(SampleRate) * d.Seconds())
	fade := n / 10
	out := make([]byte, 0, 2*n*2)

	for _, freq := range []float64{first, second} {
		for i := 0; i < n; i++ {
			amp := 0.4
			switch {
			case i < fade:
				amp *= float64(i) / float64(fade)
			case i > n-fade:
				amp *= float64(n-i) / float64(fade)
			}
			v := amp * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(v*math.MaxInt16)))
		}
	}
	return out
}

// extractPCM strips the WAV/RIFF header and returns raw PCM data.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}

	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	// Walk chunks to find the "data" chunk.
	pos := 12
	for pos < len(wav)-8 {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))

		if chunkID == "data" {
			start := pos + 8
			end := min(start+chunkSize, len(wav))
			return wav[start:end], nil
		}

		pos += 8 + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}

	return nil, errors.New("data chunk not found in WAV")
}
