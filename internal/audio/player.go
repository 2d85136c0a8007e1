package audio

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
)

const (
	playbackSampleRate = 16000
	defaultVolume      = 0.4
)

// tone is one note of the looped sample melody. A zero frequency is a rest.
type tone struct {
	frequencyHz float64
	duration    time.Duration
}

var melodyLine = []tone{
	{frequencyHz: 440.00, duration: 170 * time.Millisecond},
	{frequencyHz: 554.37, duration: 170 * time.Millisecond},
	{frequencyHz: 659.25, duration: 170 * time.Millisecond},
	{frequencyHz: 880.00, duration: 260 * time.Millisecond},
	{frequencyHz: 659.25, duration: 170 * time.Millisecond},
	{frequencyHz: 554.37, duration: 170 * time.Millisecond},
	{frequencyHz: 440.00, duration: 320 * time.Millisecond},
	{frequencyHz: 0, duration: 420 * time.Millisecond},
}

// SamplePlayer loops a synthesized melody through Pulse so users can verify
// the app-audio path without routing real media. Playback runs independently
// of the capture session; excluding the app from capture halts it.
type SamplePlayer struct {
	logger *slog.Logger
	volume float64

	mu     sync.Mutex
	stopCh chan struct{}

	playing atomic.Bool
	level   atomic.Uint64
}

// NewSamplePlayer constructs a player. Volume outside (0, 1] falls back to
// the default.
func NewSamplePlayer(logger *slog.Logger, volume float64) *SamplePlayer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if volume <= 0 || volume > 1 {
		volume = defaultVolume
	}
	return &SamplePlayer{logger: logger, volume: volume}
}

// IsPlaying reports whether the sample loop is active.
func (p *SamplePlayer) IsPlaying() bool {
	return p.playing.Load()
}

// Level returns the most recent playback amplitude in [0, 1]. Zero while stopped.
func (p *SamplePlayer) Level() float64 {
	return math.Float64frombits(p.level.Load())
}

// Play starts the sample loop. Calling Play while already playing is a no-op.
func (p *SamplePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh != nil {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("glint"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}

	samples := melodyPCM(p.volume)
	stopCh := make(chan struct{})
	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		select {
		case <-stopCh:
			return 0, pulse.EndOfData
		default:
		}

		n := 0
		for n < len(buf) {
			copied := copy(buf[n:], samples[cursor:])
			n += copied
			cursor += copied
			if cursor >= len(samples) {
				cursor = 0
			}
		}
		p.storeLevel(rmsLevel(buf[:n]))
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(playbackSampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackMediaName("glint sample loop"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("create pulse playback stream: %w", err)
	}

	p.stopCh = stopCh
	p.playing.Store(true)
	stream.Start()
	go p.drain(client, stream, stopCh)

	p.logger.Info("sample playback started", "volume", p.volume)
	return nil
}

// Stop halts the sample loop. Stopping an idle player is a no-op.
func (p *SamplePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	p.stopCh = nil
	p.playing.Store(false)
	p.storeLevel(0)
	p.logger.Info("sample playback stopped")
}

// drain waits for the stream to finish and releases the Pulse client. When
// the stream dies on its own (server gone, device removed) the player state
// clears itself so IsPlaying stays truthful.
func (p *SamplePlayer) drain(client *pulse.Client, stream *pulse.PlaybackStream, stopCh chan struct{}) {
	stream.Drain()
	if err := stream.Error(); err != nil {
		p.logger.Warn("sample playback ended with error", "error", err)
	}
	stream.Close()
	client.Close()

	p.mu.Lock()
	if p.stopCh == stopCh {
		p.stopCh = nil
		p.playing.Store(false)
		p.storeLevel(0)
	}
	p.mu.Unlock()
}

func (p *SamplePlayer) storeLevel(v float64) {
	p.level.Store(math.Float64bits(v))
}

// rmsLevel computes the normalized root-mean-square amplitude of a PCM chunk.
func rmsLevel(buf []int16) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		v := float64(s) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// melodyPCM renders the melody line at the given volume.
func melodyPCM(volume float64) []int16 {
	gapSamples := samplesForDuration(25 * time.Millisecond)

	total := 0
	for i, note := range melodyLine {
		total += samplesForDuration(note.duration)
		if i < len(melodyLine)-1 {
			total += gapSamples
		}
	}

	pcm := make([]int16, 0, total)
	for i, note := range melodyLine {
		pcm = append(pcm, synthesizeTone(note, volume)...)
		if i < len(melodyLine)-1 && gapSamples > 0 {
			pcm = append(pcm, make([]int16, gapSamples)...)
		}
	}
	return pcm
}

// synthesizeTone renders one note with a short attack/release envelope to
// avoid clicks at note boundaries. Rests render as silence.
func synthesizeTone(note tone, volume float64) []int16 {
	n := samplesForDuration(note.duration)
	if n <= 0 {
		return nil
	}
	if note.frequencyHz <= 0 || volume <= 0 {
		return make([]int16, n)
	}

	attackRelease := n / 10
	maxRamp := playbackSampleRate / 200 // 5ms
	if attackRelease > maxRamp {
		attackRelease = maxRamp
	}
	if attackRelease < 1 {
		attackRelease = 1
	}

	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		envelope := 1.0
		if i < attackRelease {
			envelope = float64(i) / float64(attackRelease)
		}
		releaseIndex := n - i - 1
		if releaseIndex < attackRelease {
			release := float64(releaseIndex) / float64(attackRelease)
			if release < envelope {
				envelope = release
			}
		}
		t := float64(i) / playbackSampleRate
		sample := math.Sin(2 * math.Pi * note.frequencyHz * t)
		pcm[i] = int16(math.Round(sample * volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * playbackSampleRate))
}
