//go:build linux

package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// ALSASource captures audio on Linux by streaming raw PCM from arecord.
type ALSASource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan Frame
	stopCh   chan struct{}
	doneCh   chan struct{}
	cmd      *exec.Cmd

	framesRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64

	device string
}

// newALSASource creates a new ALSA audio source.
func newALSASource(cfg Config, logger *slog.Logger) (*ALSASource, error) {
	device := cfg.Device
	if device == "" {
		device = "default"
	}

	return &ALSASource{
		cfg:    cfg,
		logger: logger.With("component", "audioio.alsa_source"),
		device: device,
	}, nil
}

// Start spawns arecord and begins reading fixed-size frames.
func (s *ALSASource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.Command("arecord",
		"-q",
		"-D", s.device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.cfg.SampleRate),
		"-c", strconv.Itoa(s.cfg.Channels),
		"-t", "raw",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("arecord stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start arecord: %w", err)
	}

	s.cmd = cmd
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.streamCh = make(chan Frame, 10)

	go s.captureLoop(ctx, stdout, s.stopCh, s.streamCh, s.doneCh)

	s.logger.Info("alsa source started", "device", s.device)

	return nil
}

// captureLoop owns streamCh: only it sends on the channel and only it
// closes it, on exit, so a concurrent Stop can never race a send
// against the close.
func (s *ALSASource) captureLoop(ctx context.Context, stdout io.Reader, stopCh <-chan struct{}, streamCh chan Frame, done chan struct{}) {
	defer close(done)
	defer close(streamCh)

	frameBytes := s.cfg.FrameBytes()
	buf := make([]byte, frameBytes)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		if _, err := io.ReadFull(stdout, buf); err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if running {
				s.logger.Error("alsa read failed", "error", err)
			}
			return
		}

		var frame Frame
		frame.FromBytes(buf, s.cfg.SampleRate, s.cfg.Channels)

		select {
		case streamCh <- frame:
			s.framesRead.Add(1)
			s.samplesRead.Add(int64(len(frame.Samples)))
		default:
			s.overruns.Add(1)
		}
	}
}

// Stop halts capture and terminates arecord. Killing the process
// unblocks the pending pipe read; the capture loop closes the stream
// channel on its way out, and the process is reaped only after the
// loop has finished reading.
func (s *ALSASource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh, cmd := s.stopCh, s.doneCh, s.cmd
	s.cmd = nil
	s.mu.Unlock()

	close(stopCh)
	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
	<-doneCh
	if cmd != nil {
		cmd.Wait()
	}

	s.logger.Info("alsa source stopped")

	return nil
}

// Read reads the next frame.
func (s *ALSASource) Read(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case frame, ok := <-s.streamCh:
		if !ok {
			return Frame{}, io.EOF
		}
		return frame, nil
	}
}

// Stream returns the frame channel.
func (s *ALSASource) Stream() <-chan Frame {
	return s.streamCh
}

// Config returns the audio configuration.
func (s *ALSASource) Config() Config {
	return s.cfg
}

// Name returns "alsa".
func (s *ALSASource) Name() string {
	return "alsa"
}

// Close releases resources.
func (s *ALSASource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	return nil
}

// Stats returns source statistics.
func (s *ALSASource) Stats() SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SourceStats{
		FramesRead:  s.framesRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     "alsa",
	}
}

var _ Source = (*ALSASource)(nil)

// ALSASink plays audio on Linux by streaming raw PCM to aplay.
type ALSASink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	cmd     *exec.Cmd
	stdin   io.WriteCloser

	framesWritten  atomic.Int64
	samplesWritten atomic.Int64

	device string
}

// newALSASink creates a new ALSA audio sink.
func newALSASink(cfg Config, logger *slog.Logger) (*ALSASink, error) {
	device := cfg.Device
	if device == "" {
		device = "default"
	}

	return &ALSASink{
		cfg:    cfg,
		logger: logger.With("component", "audioio.alsa_sink"),
		device: device,
	}, nil
}

// Start spawns aplay ready to accept raw PCM on stdin.
func (s *ALSASink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	if err := s.spawnLocked(); err != nil {
		return err
	}
	s.running = true

	s.logger.Info("alsa sink started", "device", s.device)

	return nil
}

func (s *ALSASink) spawnLocked() error {
	cmd := exec.Command("aplay",
		"-q",
		"-D", s.device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.cfg.SampleRate),
		"-c", strconv.Itoa(s.cfg.Channels),
		"-t", "raw",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("aplay stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start aplay: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *ALSASink) killLocked() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
}

// Stop halts playback and terminates aplay.
func (s *ALSASink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	s.killLocked()

	s.logger.Info("alsa sink stopped")

	return nil
}

// Write sends a frame to the output device.
func (s *ALSASink) Write(ctx context.Context, frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if !s.running || s.stdin == nil {
		return fmt.Errorf("sink not running")
	}

	if _, err := s.stdin.Write(frame.Bytes()); err != nil {
		// Pipe died; restart on the next Write.
		s.killLocked()
		if err2 := s.spawnLocked(); err2 != nil {
			return fmt.Errorf("write to aplay: %w", err)
		}
		return fmt.Errorf("write to aplay: %w", err)
	}

	s.framesWritten.Add(1)
	s.samplesWritten.Add(int64(len(frame.Samples)))

	return nil
}

// Clear discards buffered audio by restarting the playback pipe.
func (s *ALSASink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.killLocked()
	return s.spawnLocked()
}

// Config returns the audio configuration.
func (s *ALSASink) Config() Config {
	return s.cfg
}

// Name returns "alsa".
func (s *ALSASink) Name() string {
	return "alsa"
}

// Close releases resources.
func (s *ALSASink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	return nil
}

// Stats returns sink statistics.
func (s *ALSASink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SinkStats{
		FramesWritten:  s.framesWritten.Load(),
		SamplesWritten: s.samplesWritten.Load(),
		Running:        running,
		Backend:        "alsa",
	}
}

var _ Sink = (*ALSASink)(nil)
