package alarm

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// NewSound returns the backend named by kind: "tone", "bell" or "none".
func NewSound(kind string) (Sound, error) {
	switch kind {
	case "", "tone":
		return &Tone{Frequency: 880, Beeps: 3, Beep: 250 * time.Millisecond, Gap: 150 * time.Millisecond}, nil
	case "bell":
		return Bell{}, nil
	case "none":
		return Silent{}, nil
	default:
		return nil, fmt.Errorf("unknown sound backend %q", kind)
	}
}

// Silent plays nothing.
type Silent struct{}

func (Silent) Play(context.Context) error { return nil }

// Bell rings the terminal bell.
type Bell struct{}

// Play writes BEL to /dev/tty, falling back to stderr when there is no
// controlling terminal. The bell bypasses the alternate screen that way.
func (Bell) Play(context.Context) error {
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		if _, err := os.Stderr.WriteString("\a"); err != nil {
			return fmt.Errorf("ring bell: %w", err)
		}
		return nil
	}
	defer tty.Close()
	if _, err := tty.WriteString("\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

const (
	toneSampleRate = 44100
	toneChannels   = 1
)

// The oto context can only be created once per process.
var (
	audioCtx     *oto.Context
	audioCtxErr  error
	audioCtxOnce sync.Once
)

func audioContext() (*oto.Context, error) {
	audioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   toneSampleRate,
			ChannelCount: toneChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			audioCtxErr = fmt.Errorf("init audio: %w", err)
			return
		}
		<-ready
		audioCtx = ctx
	})
	return audioCtx, audioCtxErr
}

// Tone plays a generated beep pattern through the system audio device.
type Tone struct {
	Frequency float64
	Beeps     int
	Beep      time.Duration
	Gap       time.Duration
}

// Play blocks until the pattern finishes or ctx is done.
func (t *Tone) Play(ctx context.Context) error {
	ac, err := audioContext()
	if err != nil {
		return err
	}

	p := ac.NewPlayer(bytes.NewReader(t.pcm()))
	defer p.Close()
	p.Play()

	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
	if err := p.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("play tone: %w", err)
	}
	return nil
}

// pcm renders the beep pattern as signed 16-bit little-endian mono samples.
func (t *Tone) pcm() []byte {
	samplesPer := func(d time.Duration) int {
		return int(d.Seconds() * toneSampleRate)
	}
	beep, gap := samplesPer(t.Beep), samplesPer(t.Gap)
	// Short fade at both ends avoids clicks.
	fade := toneSampleRate / 200

	var buf bytes.Buffer
	buf.Grow((beep + gap) * t.Beeps * 2)
	for b := 0; b < t.Beeps; b++ {
		for i := 0; i < beep; i++ {
			amp := 0.4
			if i < fade {
				amp *= float64(i) / float64(fade)
			} else if beep-i < fade {
				amp *= float64(beep-i) / float64(fade)
			}
			v := amp * math.Sin(2*math.Pi*t.Frequency*float64(i)/toneSampleRate)
			binary.Write(&buf, binary.LittleEndian, int16(v*math.MaxInt16))
		}
		if b < t.Beeps-1 {
			buf.Write(make([]byte, gap*2))
		}
	}
	return buf.Bytes()
}
