// Package alert plays the audible cue for finished timers.
package alert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/wokai/wokcook/internal/domain"
	"github.com/wokai/wokcook/internal/logger"
)

// Audio parameters of the generated chime and of accepted WAV files.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Compile-time interface check.
var _ domain.Alerter = (*Chime)(nil)

// Chime plays a short PCM sound through the system audio device.
type Chime struct {
	ctx *oto.Context
	log *logger.Logger
	pcm []byte

	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewChime initializes the audio device. When wavPath is empty a two-tone
// chime is generated, otherwise the WAV file (16-bit mono, 24 kHz) is
// played. Returns an error if the audio device is unavailable.
func NewChime(log *logger.Logger, wavPath string) (*Chime, error) {
	pcm := Tone(880, 660, 180*time.Millisecond)
	if wavPath != "" {
		data, err := os.ReadFile(wavPath)
		if err != nil {
			return nil, fmt.Errorf("reading chime: %w", err)
		}
		if pcm, err = extractPCM(data); err != nil {
			return nil, fmt.Errorf("chime %s: %w", wavPath, err)
		}
	}

	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-readyChan

	log.Debug("chime initialized (rate=%d, channels=%d, %d bytes)", SampleRate, ChannelCount, len(pcm))
	return &Chime{ctx: ctx, log: log, pcm: pcm}, nil
}

// Alert plays the chime. Blocks until playback finishes or ctx is done.
// A chime already playing is cut off.
func (c *Chime) Alert(ctx context.Context) error {
	c.Stop()

	player := c.ctx.NewPlayer(bytes.NewReader(c.pcm))

	c.mu.Lock()
	c.active = player
	c.mu.Unlock()

	player.Play()
	c.log.Debug("chime: playing %d bytes of PCM", len(c.pcm))

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
		case <-ticker.C:
		}
	}

	c.mu.Lock()
	if c.active == player {
		c.active = nil
	}
	c.mu.Unlock()

	return player.Close()
}

// Stop interrupts the chime, if any. Safe to call concurrently and when
// nothing is playing.
func (c *Chime) Stop() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.Pause()
		c.log.Debug("chime: interrupted")
	}
}
