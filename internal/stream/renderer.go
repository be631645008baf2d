package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/leodahl/chorus/internal/session"
)

const (
	sampleRate = 48000
	channels   = 2
	frameSize  = 960 // 20ms at 48k
	frameBytes = frameSize * channels * 2
	maxOpus    = 4000
)

// Renderer plays tracks over a single voice connection: ffmpeg decodes the
// stream URL to raw PCM, frames are volume-scaled and opus-encoded, and
// packets are paced onto the connection at 20ms intervals.
type Renderer struct {
	vc *discordgo.VoiceConnection
}

func NewRenderer(vc *discordgo.VoiceConnection) *Renderer {
	return &Renderer{vc: vc}
}

func (r *Renderer) Start(ctx context.Context, t session.Track, volume int, onDone func(error)) (session.Handle, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	enc.SetBitrate(160000)

	ctx2, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pcm, err := startPCM(ctx2, t.StreamURL)
	if err != nil {
		cancel()
		return nil, err
	}

	h := &playHandle{
		vc:     r.vc,
		enc:    enc,
		pcm:    pcm,
		cancel: cancel,
		onDone: onDone,
	}
	h.volume.Store(int32(volume))
	go h.run()
	return h, nil
}

type playHandle struct {
	vc     *discordgo.VoiceConnection
	enc    *gopus.Encoder
	pcm    *pcmStream
	cancel context.CancelFunc
	onDone func(error)

	volume  atomic.Int32
	frames  atomic.Int64
	paused  atomic.Bool
	stopped atomic.Bool
	once    sync.Once
}

func (h *playHandle) Pause()  { h.paused.Store(true) }
func (h *playHandle) Resume() { h.paused.Store(false) }

// Position reports how much audio has been sent, counted in 20ms frames.
func (h *playHandle) Position() time.Duration {
	return time.Duration(h.frames.Load()) * 20 * time.Millisecond
}

func (h *playHandle) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	h.volume.Store(int32(percent))
}

// Stop kills the decode pipeline. The run loop notices and delivers the
// completion signal with a nil error since the stop was deliberate.
func (h *playHandle) Stop() {
	h.stopped.Store(true)
	h.cancel()
	h.pcm.close()
}

func (h *playHandle) finish(err error) {
	h.once.Do(func() {
		if h.stopped.Load() {
			err = nil
		}
		h.onDone(err)
	})
}

func (h *playHandle) run() {
	defer h.pcm.close()

	if err := waitReady(h.vc, 5*time.Second); err != nil {
		h.finish(err)
		return
	}
	_ = h.vc.Speaking(true)
	defer h.vc.Speaking(false)

	reader := bufio.NewReaderSize(h.pcm.stdout, 64*1024)
	pcmBuf := make([]byte, frameBytes)
	shorts := make([]int16, frameSize*channels)

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if h.stopped.Load() {
			h.finish(nil)
			return
		}
		if h.paused.Load() {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if _, err := io.ReadFull(reader, pcmBuf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				h.finish(nil)
			} else {
				h.finish(fmt.Errorf("read pcm: %w (%s)", err, h.pcm.stderrTail()))
			}
			return
		}

		scalePCM(pcmBuf, shorts, int(h.volume.Load()))

		packet, err := h.enc.Encode(shorts, frameSize, maxOpus)
		if err != nil {
			h.finish(fmt.Errorf("opus encode: %w", err))
			return
		}

		<-ticker.C
		select {
		case h.vc.OpusSend <- packet:
			h.frames.Add(1)
		case <-time.After(200 * time.Millisecond):
			h.finish(fmt.Errorf("opus send timeout"))
			return
		}
	}
}

// scalePCM converts interleaved s16le bytes to int16 samples with a linear
// volume scale, clamping at the int16 range.
func scalePCM(pcmBuf []byte, shorts []int16, vol int) {
	for i := 0; i < len(shorts); i++ {
		j := i * 2
		s := int(int16(pcmBuf[j]) | int16(int8(pcmBuf[j+1]))<<8)
		s = s * vol / 100
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		shorts[i] = int16(s)
	}
}

func waitReady(vc *discordgo.VoiceConnection, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if vc != nil && vc.Ready {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("voice connection not ready")
}

// pcmStream is an ffmpeg process decoding inputURL to s16le 48k stereo.
type pcmStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
}

func startPCM(ctx context.Context, inputURL string) (*pcmStream, error) {
	ctx2, cancel := context.WithCancel(ctx)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
		"-i", inputURL,
		"-vn",
		"-ac", "2",
		"-ar", "48000",
		"-f", "s16le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx2, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg start: %w (stderr: %s)", err, stderr.String())
	}

	return &pcmStream{cmd: cmd, stdout: stdout, stderr: stderr, cancel: cancel}, nil
}

func (s *pcmStream) close() {
	s.cancel()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
}

func (s *pcmStream) stderrTail() string {
	out := s.stderr.String()
	if len(out) > 200 {
		out = out[len(out)-200:]
	}
	return out
}
