package realtime

import (
	"log/slog"
	"time"
)

// Defaults for the realtime channel.
const (
	DefaultVADThreshold      = 0.5
	DefaultVADPrefixMs       = 300
	DefaultVADSilenceMs      = 700
	DefaultTemperature       = 0.7
	DefaultMaxResponseTokens = 4096

	// DefaultSendErrorThreshold terminates the send loop after this
	// many consecutive send failures.
	DefaultSendErrorThreshold = 5

	// DefaultReadRetries is how many passive wait-and-continue retries
	// the receive loop attempts after a read error before giving up.
	DefaultReadRetries = 3

	// DefaultStaleThreshold is how long the channel may go without any
	// inbound traffic before a heartbeat warning is logged. Detection
	// only; recovery stays with the read-retry policy.
	DefaultStaleThreshold = 30 * time.Second

	// sendIdleSleep is how long the send loop waits when the outbound
	// queue is empty.
	sendIdleSleep = 10 * time.Millisecond
)

// Config holds realtime channel configuration.
type Config struct {
	// URL is the websocket endpoint.
	URL string

	// Model selects the speech model.
	Model string

	// APIKey authenticates the connection.
	APIKey string

	// Instructions is the system prompt for the session.
	Instructions string

	// VADThreshold tunes server-side voice activity detection.
	VADThreshold float64

	// VADSilenceMs is how much trailing silence ends a user turn.
	VADSilenceMs int

	// Temperature for speech generation.
	Temperature float64

	// SendErrorThreshold terminates the send loop when reached.
	SendErrorThreshold int

	// StaleThreshold is the quiet period after which the monitor loop
	// logs a heartbeat warning.
	StaleThreshold time.Duration

	// Logger is the structured logger.
	Logger *slog.Logger
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	if c.VADThreshold == 0 {
		c.VADThreshold = DefaultVADThreshold
	}
	if c.VADSilenceMs == 0 {
		c.VADSilenceMs = DefaultVADSilenceMs
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.SendErrorThreshold == 0 {
		c.SendErrorThreshold = DefaultSendErrorThreshold
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = DefaultStaleThreshold
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
