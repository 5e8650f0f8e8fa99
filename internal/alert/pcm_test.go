package alert

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestTone(t *testing.T) {
	pcm := Tone(880, 660, 100*time.Millisecond)

	samples := SampleRate / 10 * 2
	if len(pcm) != samples*2 {
		t.Fatalf("len = %d bytes, want %d", len(pcm), samples*2)
	}
	if first := int16(binary.LittleEndian.Uint16(pcm[0:2])); first != 0 {
		t.Fatalf("tone should start silent, got %d", first)
	}

	var peak int16
	for i := 0; i < len(pcm); i += 2 {
		if v := int16(binary.LittleEndian.Uint16(pcm[i:])); v > peak {
			peak = v
		}
	}
	if peak == 0 {
		t.Fatal("tone is silent")
	}
}

func wav(chunks ...[]byte) []byte {
	out := []byte("RIFF\x00\x00\x00\x00WAVE")
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func chunk(id string, body []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

func TestExtractPCM(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}

	tests := []struct {
		name    string
		input   []byte
		want    int
		wantErr bool
	}{
		{"fmt then data", wav(chunk("fmt ", make([]byte, 16)), chunk("data", data)), 6, false},
		{"odd chunk padding", wav(chunk("LIST", make([]byte, 15)), chunk("fmt ", make([]byte, 16)), chunk("data", data)), 6, false},
		{"too short", []byte("RIFF"), 0, true},
		{"not riff", append([]byte("RIFX\x00\x00\x00\x00WAVE"), make([]byte, 40)...), 0, true},
		{"no data", wav(chunk("fmt ", make([]byte, 40))), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm, err := extractPCM(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(pcm) != tt.want {
				t.Fatalf("pcm len = %d, want %d", len(pcm), tt.want)
			}
		})
	}
}
