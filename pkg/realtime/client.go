// Package realtime provides a client for an OpenAI-compatible realtime
// speech API over a persistent duplex WebSocket, used for low-latency
// speech-to-speech conversation turns.
package realtime

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TonyTown6033/interview-robot/pkg/audioio"
)

// Client manages the WebSocket connection to the realtime speech API.
// It owns the send loop (draining outbound audio) and the receive loop
// (dispatching inbound events); all conversation state beyond the
// speaking flags lives with the caller.
type Client struct {
	cfg    Config
	logger *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	// outbound carries raw PCM frames from capture to the send loop.
	outbound *audioio.FrameQueue

	running      atomic.Bool
	sessionReady atomic.Bool
	aiSpeaking   atomic.Bool
	userSpeaking atomic.Bool

	framesSent     atomic.Int64
	eventsReceived atomic.Int64
	sendErrors     atomic.Int64
	lastActivityNs atomic.Int64
	staleWarned    atomic.Bool

	wg sync.WaitGroup

	// Callbacks, invoked from the receive loop. Set before Connect.
	OnSessionCreated func(sessionID string)
	OnSpeechStarted  func()
	OnSpeechStopped  func()
	OnTranscript     func(transcript string)
	OnResponseCreated func()
	OnResponseDone    func()
	OnAudioDelta      func(pcm []byte)
	OnTextDelta       func(text string)
	OnError           func(err error)
	OnClosed          func()
}

// NewClient creates a realtime client. The outbound queue feeds the
// send loop; pass an unbounded or bounded queue per taste.
func NewClient(cfg Config, outbound *audioio.FrameQueue) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "realtime.client"),
		outbound: outbound,
	}
}

// Connect establishes the WebSocket connection and starts the send and
// receive loops. The session is configured immediately after connecting.
func (c *Client) Connect() error {
	url := fmt.Sprintf("%s?model=%s", c.cfg.URL, c.cfg.Model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.Dial(url, header)
	if err != nil {
		return fmt.Errorf("connect realtime API: %w", err)
	}

	c.ws = ws
	c.ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	c.running.Store(true)
	c.touchActivity()

	if err := c.configureSession(); err != nil {
		c.running.Store(false)
		ws.Close()
		return err
	}

	c.wg.Add(3)
	go c.sendLoop()
	go c.receiveLoop()
	go c.monitorLoop()

	c.logger.Info("realtime channel connected", "model", c.cfg.Model)

	return nil
}

// configureSession sends the session.update event with audio codec,
// turn detection, and instructions.
func (c *Client) configureSession() error {
	msg := map[string]interface{}{
		"type": EventSessionUpdate,
		"session": map[string]interface{}{
			"modalities":          []string{"text", "audio"},
			"instructions":        c.cfg.Instructions,
			"input_audio_format":  "pcm16",
			"output_audio_format": "pcm16",
			"input_audio_transcription": map[string]interface{}{
				"model": "whisper-1",
			},
			"turn_detection": map[string]interface{}{
				"type":                "server_vad",
				"threshold":           c.cfg.VADThreshold,
				"prefix_padding_ms":   DefaultVADPrefixMs,
				"silence_duration_ms": c.cfg.VADSilenceMs,
			},
			"temperature":                c.cfg.Temperature,
			"max_response_output_tokens": DefaultMaxResponseTokens,
		},
	}

	return c.sendJSON(msg)
}

// SpeakText asks the remote voice to speak: it creates a text
// conversation item and triggers a response.
func (c *Client) SpeakText(text string) error {
	msg := map[string]interface{}{
		"type": EventConversationItemCreate,
		"item": map[string]interface{}{
			"type": "message",
			"role": "user",
			"content": []map[string]interface{}{
				{"type": "input_text", "text": text},
			},
		},
	}

	if err := c.sendJSON(msg); err != nil {
		return err
	}
	return c.sendJSON(map[string]interface{}{"type": EventResponseCreate})
}

// CancelResponse interrupts the current response.
func (c *Client) CancelResponse() error {
	return c.sendJSON(map[string]interface{}{"type": EventResponseCancel})
}

// ClearInputAudio discards the server-side input audio buffer.
func (c *Client) ClearInputAudio() error {
	return c.sendJSON(map[string]interface{}{"type": EventInputAudioClear})
}

// sendLoop drains the outbound queue, base64-encodes each frame, and
// transmits an append-audio event. An empty queue means a short sleep,
// not a busy spin. Consecutive send failures beyond the threshold
// terminate the loop and mark the session as no longer running.
func (c *Client) sendLoop() {
	defer c.wg.Done()

	consecutiveErrors := 0

	for c.running.Load() {
		frame, ok := c.outbound.TryPop()
		if !ok {
			time.Sleep(sendIdleSleep)
			continue
		}

		msg := map[string]interface{}{
			"type":  EventInputAudioAppend,
			"audio": base64.StdEncoding.EncodeToString(frame),
		}

		if err := c.sendJSON(msg); err != nil {
			consecutiveErrors++
			c.sendErrors.Add(1)
			c.logger.Warn("audio send failed",
				"error", err,
				"consecutive", consecutiveErrors,
			)
			if consecutiveErrors >= c.cfg.SendErrorThreshold {
				c.logger.Error("send error threshold reached, stopping session")
				c.shutdown()
				return
			}
			continue
		}

		consecutiveErrors = 0
		c.framesSent.Add(1)
	}
}

// receiveLoop blocks on inbound messages and dispatches them. Malformed
// payloads are logged and skipped. Read errors get a few passive
// wait-and-continue retries before the loop gives up and marks the
// session non-running; reconnection is the caller's policy.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	readRetries := 0

	for c.running.Load() {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if !c.running.Load() {
				return
			}
			readRetries++
			c.logger.Warn("read failed",
				"error", err,
				"retry", readRetries,
			)
			if readRetries > DefaultReadRetries || websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.OnError != nil {
					c.OnError(err)
				}
				c.shutdown()
				return
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		readRetries = 0
		c.touchActivity()
		c.eventsReceived.Add(1)

		ev, err := ParseServerEvent(message)
		if err != nil {
			c.logger.Warn("malformed event discarded", "error", err)
			continue
		}

		c.dispatch(ev)
	}
}

// dispatch routes one server event.
func (c *Client) dispatch(ev *ServerEvent) {
	switch ev.Type {
	case EventSessionCreated:
		c.sessionReady.Store(true)
		id := ""
		if ev.Session != nil {
			id = ev.Session.ID
		}
		c.logger.Info("session created", "session_id", id)
		if c.OnSessionCreated != nil {
			c.OnSessionCreated(id)
		}

	case EventSessionUpdated, EventAudioCommitted:
		// Lifecycle acks.

	case EventSpeechStarted:
		c.userSpeaking.Store(true)
		if c.OnSpeechStarted != nil {
			c.OnSpeechStarted()
		}

	case EventSpeechStopped:
		c.userSpeaking.Store(false)
		if c.OnSpeechStopped != nil {
			c.OnSpeechStopped()
		}

	case EventTranscriptionCompleted:
		if !validTranscript(ev.Transcript) {
			c.logger.Debug("transcript discarded as noise", "transcript", ev.Transcript)
			return
		}
		if c.OnTranscript != nil {
			c.OnTranscript(ev.Transcript)
		}

	case EventResponseCreated:
		c.aiSpeaking.Store(true)
		if c.OnResponseCreated != nil {
			c.OnResponseCreated()
		}

	case EventResponseDone:
		c.aiSpeaking.Store(false)
		if c.OnResponseDone != nil {
			c.OnResponseDone()
		}

	case EventAudioDelta:
		// Suppress AI audio while the user is talking so we never
		// play over them.
		if !c.aiSpeaking.Load() || c.userSpeaking.Load() {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			c.logger.Warn("bad audio delta", "error", err)
			return
		}
		if c.OnAudioDelta != nil {
			c.OnAudioDelta(pcm)
		}

	case EventAudioDone, EventTextDone:
		// End-of-stream markers for individual modalities.

	case EventTextDelta:
		if ev.Delta != "" && c.OnTextDelta != nil {
			c.OnTextDelta(ev.Delta)
		}

	case EventError:
		if ev.Error == nil {
			return
		}
		if ev.Error.IsRecoverable() {
			c.logger.Warn("recoverable API error, waiting", "message", ev.Error.Message)
			time.Sleep(time.Second)
			return
		}
		c.logger.Error("API error", "code", ev.Error.Code, "message", ev.Error.Message)
		if c.OnError != nil {
			c.OnError(ev.Error)
		}

	default:
		c.logger.Debug("unhandled event", "type", ev.Type)
	}
}

// sendJSON writes one message under the connection write lock.
func (c *Client) sendJSON(v interface{}) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return fmt.Errorf("realtime: not connected")
	}
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(v)
}

// shutdown marks the session not running and notifies the caller once.
func (c *Client) shutdown() {
	if c.running.CompareAndSwap(true, false) {
		if c.OnClosed != nil {
			c.OnClosed()
		}
	}
}

// Close stops both loops and closes the connection.
func (c *Client) Close() {
	c.running.Store(false)

	c.wsMu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.wsMu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.logger.Warn("loops did not stop within deadline")
	}
}

// IsRunning reports whether the channel loops are active.
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// IsReady reports whether the remote session has been created.
func (c *Client) IsReady() bool {
	return c.sessionReady.Load()
}

// AISpeaking reports whether a response is currently streaming.
func (c *Client) AISpeaking() bool {
	return c.aiSpeaking.Load()
}

// UserSpeaking reports whether server VAD currently detects the user.
func (c *Client) UserSpeaking() bool {
	return c.userSpeaking.Load()
}

// Stats returns channel counters.
func (c *Client) Stats() Stats {
	return Stats{
		FramesSent:     c.framesSent.Load(),
		EventsReceived: c.eventsReceived.Load(),
		SendErrors:     c.sendErrors.Load(),
		LastActivity:   time.Unix(0, c.lastActivityNs.Load()),
	}
}

// Stats holds channel counters for observability.
type Stats struct {
	FramesSent     int64
	EventsReceived int64
	SendErrors     int64
	LastActivity   time.Time
}

func (c *Client) touchActivity() {
	c.lastActivityNs.Store(time.Now().UnixNano())
	c.staleWarned.Store(false)
}

// monitorLoop watches the inbound activity timestamp and warns when the
// channel goes quiet past StaleThreshold. It never tears the session
// down; the receive loop's read-retry policy owns recovery.
func (c *Client) monitorLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for c.running.Load() {
		<-ticker.C
		c.checkStale(time.Now())
	}
}

// checkStale logs at most one warning per quiet stretch.
func (c *Client) checkStale(now time.Time) {
	quiet := now.Sub(time.Unix(0, c.lastActivityNs.Load()))
	if quiet < c.cfg.StaleThreshold {
		return
	}
	if c.staleWarned.CompareAndSwap(false, true) {
		c.logger.Warn("no inbound traffic on realtime channel",
			"quiet", quiet.Round(time.Second),
			"threshold", c.cfg.StaleThreshold,
		)
	}
}

// minTranscriptRunes is the noise floor: shorter transcripts are
// discarded rather than treated as answers.
const minTranscriptRunes = 2

func validTranscript(t string) bool {
	n := 0
	for range t {
		n++
		if n >= minTranscriptRunes {
			return true
		}
	}
	return false
}
