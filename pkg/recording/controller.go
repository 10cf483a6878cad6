// Package recording owns the microphone for the length of a consultation:
// start, pause, resume and stop transitions, chunk buffering, the elapsed
// timer and the interruption watchers.
package recording

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/speaker"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusRecording  Status = "recording"
	StatusPaused     Status = "paused"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Snapshot is the recording state handed to the encounter on pause.
type Snapshot struct {
	ElapsedSeconds int                     `json:"elapsed_seconds"`
	SpeakerLabels  map[string]speaker.Role `json:"speaker_labels,omitempty"`
}

// Result is returned by Stop.
type Result struct {
	Recording Recording
	Outcome   *analysis.Outcome
}

type Config struct {
	Audio        AudioConfig
	ChunkSize    int
	TickInterval time.Duration

	OnStatus func(Status)
	OnTick   func(elapsedSeconds int)
}

// Controller serializes transitions through opMu; mu guards the fields the
// pump and ticker goroutines touch.
type Controller struct {
	capture  AudioCapture
	analyzer Analyzer
	cfg      Config
	labels   *speaker.Labels

	opMu sync.Mutex

	mu             sync.Mutex
	status         Status
	chunks         [][]byte
	elapsed        int
	session        AudioSession
	suspended      bool
	pumpDone       chan struct{}
	tickStop       chan struct{}
	tickDone       chan struct{}
	cancelAnalysis context.CancelFunc
	lastErr        error
	outcome        *analysis.Outcome
}

func NewController(capture AudioCapture, analyzer Analyzer, cfg Config) *Controller {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio = DefaultAudioConfig()
	}
	return &Controller{
		capture:  capture,
		analyzer: analyzer,
		cfg:      cfg,
		labels:   speaker.NewLabels(),
		status:   StatusIdle,
	}
}

// Start acquires the microphone and begins a fresh recording.
func (c *Controller) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.Status() {
	case StatusIdle, StatusDone, StatusError:
	default:
		return apperror.Conflict("recording already in progress")
	}

	session, err := c.acquire(ctx)
	if err != nil {
		c.setStatus(StatusError, err)
		return err
	}

	c.mu.Lock()
	c.chunks = nil
	c.elapsed = 0
	c.outcome = nil
	c.lastErr = nil
	c.mu.Unlock()
	c.labels.Reset()

	c.attach(session)
	c.startTicker()
	c.setStatus(StatusRecording, nil)
	return nil
}

// Pause suspends capture and freezes the timer. The returned snapshot is what
// the encounter should persist.
func (c *Controller) Pause() (Snapshot, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.Status() != StatusRecording {
		return Snapshot{}, apperror.Conflict("only an active recording can be paused")
	}

	c.setStatus(StatusPaused, nil)
	c.stopTicker()

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if s, ok := session.(Suspender); ok && s.Suspend() == nil {
		c.mu.Lock()
		c.suspended = true
		c.mu.Unlock()
	} else {
		c.release()
	}

	return c.Snapshot(), nil
}

// Resume continues a paused recording, re-acquiring the device if it was released.
func (c *Controller) Resume(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.Status() != StatusPaused {
		return apperror.Conflict("only a paused recording can be resumed")
	}

	c.mu.Lock()
	session, suspended := c.session, c.suspended
	c.mu.Unlock()

	resumed := false
	if suspended && session != nil {
		if s, ok := session.(Suspender); ok && s.Resume() == nil {
			resumed = true
		} else {
			c.release()
		}
	}

	if !resumed {
		fresh, err := c.acquire(ctx)
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			return err
		}
		c.attach(fresh)
	}

	c.mu.Lock()
	c.suspended = false
	c.mu.Unlock()

	c.startTicker()
	c.setStatus(StatusRecording, nil)
	return nil
}

// Restore applies a persisted snapshot. An idle controller moves to paused
// without a device, so the following Resume acquires capture.
func (c *Controller) Restore(snapshot Snapshot) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	status := c.Status()
	switch status {
	case StatusIdle, StatusPaused, StatusDone, StatusError:
	default:
		return apperror.Conflict("cannot restore while recording")
	}

	c.mu.Lock()
	c.elapsed = snapshot.ElapsedSeconds
	if status != StatusPaused {
		c.chunks = nil
	}
	c.mu.Unlock()
	c.labels.Restore(snapshot.SpeakerLabels)

	if status != StatusPaused {
		c.setStatus(StatusPaused, nil)
	}
	return nil
}

// Stop releases the device, flushes the buffer into one recording and runs analysis.
func (c *Controller) Stop(ctx context.Context) (*Result, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.Status() {
	case StatusRecording, StatusPaused:
	default:
		return nil, apperror.Conflict("no recording to stop")
	}

	c.stopTicker()
	c.release()

	analyzeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	rec := Recording{
		Data:           bytes.Join(c.chunks, nil),
		SampleRate:     c.cfg.Audio.SampleRate,
		Channels:       c.cfg.Audio.Channels,
		ElapsedSeconds: c.elapsed,
	}
	c.chunks = nil
	c.cancelAnalysis = cancel
	c.mu.Unlock()
	c.setStatus(StatusProcessing, nil)

	result := &Result{Recording: rec}
	if c.analyzer == nil {
		c.setStatus(StatusDone, nil)
		return result, nil
	}

	outcome, err := c.analyzer.Analyze(analyzeCtx, rec)

	c.mu.Lock()
	c.cancelAnalysis = nil
	c.mu.Unlock()

	if err != nil {
		c.setStatus(StatusError, err)
		return result, err
	}

	if outcome != nil {
		c.labels.Reparse(outcome.Lines)
		outcome.SpeakerLabels = c.labels.Resolved()
	}
	c.mu.Lock()
	c.outcome = outcome
	c.mu.Unlock()

	result.Outcome = outcome
	c.setStatus(StatusDone, nil)
	return result, nil
}

// Close releases capture and cancels a running analysis. Safe to call in any state.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.cancelAnalysis != nil {
		c.cancelAnalysis()
	}
	c.mu.Unlock()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stopTicker()
	c.release()

	c.mu.Lock()
	c.chunks = nil
	status := c.status
	c.mu.Unlock()

	if status == StatusRecording || status == StatusPaused {
		c.setStatus(StatusIdle, nil)
	}
	return nil
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) IsProcessing() bool {
	return c.Status() == StatusProcessing
}

func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Controller) ChunkCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

// Err is the last transition or analysis error, cleared by a successful Start.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Outcome() *analysis.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Controller) Labels() *speaker.Labels {
	return c.labels
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	elapsed := c.elapsed
	c.mu.Unlock()
	return Snapshot{ElapsedSeconds: elapsed, SpeakerLabels: c.labels.Overrides()}
}

func (c *Controller) acquire(ctx context.Context) (AudioSession, error) {
	if c.capture == nil {
		return nil, apperror.NotConfigured("audio capture is not configured")
	}
	session, err := c.capture.Start(ctx, c.cfg.Audio)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.PermissionDenied("microphone access failed", err)
	}
	return session, nil
}

func (c *Controller) attach(session AudioSession) {
	done := make(chan struct{})
	c.mu.Lock()
	c.session = session
	c.suspended = false
	c.pumpDone = done
	c.mu.Unlock()
	go c.pump(session, done)
}

// release stops the current session and waits for its pump to drain.
func (c *Controller) release() {
	c.mu.Lock()
	session, done := c.session, c.pumpDone
	c.session = nil
	c.pumpDone = nil
	c.suspended = false
	c.mu.Unlock()

	if session == nil {
		return
	}
	_ = session.Stop()
	if done != nil {
		<-done
	}
}

func (c *Controller) pump(session AudioSession, done chan struct{}) {
	defer close(done)

	buf := make([]byte, c.cfg.ChunkSize)
	for {
		n, err := session.Read(buf)
		if n > 0 {
			c.appendChunk(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (c *Controller) appendChunk(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusRecording {
		return
	}
	c.chunks = append(c.chunks, append([]byte(nil), data...))
}

func (c *Controller) startTicker() {
	stop := make(chan struct{})
	done := make(chan struct{})
	c.mu.Lock()
	c.tickStop = stop
	c.tickDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.tick()
			}
		}
	}()
}

func (c *Controller) stopTicker() {
	c.mu.Lock()
	stop, done := c.tickStop, c.tickDone
	c.tickStop = nil
	c.tickDone = nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Controller) tick() {
	c.mu.Lock()
	if c.status != StatusRecording {
		c.mu.Unlock()
		return
	}
	c.elapsed++
	elapsed := c.elapsed
	c.mu.Unlock()

	if c.cfg.OnTick != nil {
		c.cfg.OnTick(elapsed)
	}
}

func (c *Controller) setStatus(status Status, err error) {
	c.mu.Lock()
	c.status = status
	if err != nil {
		c.lastErr = err
	}
	c.mu.Unlock()

	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(status)
	}
}
