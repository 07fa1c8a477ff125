// Package stream maintains the live portfolio push channel
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/coindeck/internal/common"
	"github.com/bobmcallan/coindeck/internal/interfaces"
	"github.com/bobmcallan/coindeck/internal/models"
)

// ErrChannelClosed reports that the push channel has terminated. The state
// is terminal: a dropped channel is surfaced, never silently redialed.
var ErrChannelClosed = errors.New("portfolio channel closed")

// MalformedMessageError reports a single push frame that failed to parse.
// The frame is dropped; the published snapshot and the channel are
// unaffected.
type MalformedMessageError struct {
	Err error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed portfolio message: %v", e.Err)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

// Conn is the subset of *websocket.Conn the stream uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// DialFunc opens the push channel. Injectable for tests.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func defaultDial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// PortfolioStream owns one push-channel connection and publishes normalized
// portfolio snapshots. Lifecycle: Idle -> Connecting -> Open -> Closed, with
// no transition out of Closed.
type PortfolioStream struct {
	url    string
	dial   DialFunc
	logger *common.Logger
	cache  interfaces.SnapshotCache

	mu      sync.Mutex
	state   interfaces.StreamState
	conn    Conn
	current *models.PortfolioSnapshot
	stopped bool

	snapshots chan *models.PortfolioSnapshot
	errs      chan error
	done      chan struct{}
}

// Option configures the stream
type Option func(*PortfolioStream)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(s *PortfolioStream) {
		s.logger = logger
	}
}

// WithDialFunc overrides the channel dialer
func WithDialFunc(dial DialFunc) Option {
	return func(s *PortfolioStream) {
		s.dial = dial
	}
}

// WithSnapshotCache persists each published snapshot for warm restarts
func WithSnapshotCache(cache interfaces.SnapshotCache) Option {
	return func(s *PortfolioStream) {
		s.cache = cache
	}
}

// New creates a portfolio stream for the given channel URL.
func New(url string, opts ...Option) *PortfolioStream {
	s := &PortfolioStream{
		url:       url,
		dial:      defaultDial,
		logger:    common.NewSilentLogger(),
		state:     interfaces.StateIdle,
		snapshots: make(chan *models.PortfolioSnapshot, 16),
		errs:      make(chan error, 16),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the channel exactly once and sends the identity payload with
// the open event. Calling Start while connecting or open is a no-op, so a
// re-rendered view cannot open a duplicate channel.
func (s *PortfolioStream) Start(ctx context.Context, identity *models.UserIdentity) error {
	s.mu.Lock()
	switch s.state {
	case interfaces.StateConnecting, interfaces.StateOpen:
		s.mu.Unlock()
		return nil
	case interfaces.StateClosed:
		s.mu.Unlock()
		return ErrChannelClosed
	}
	s.state = interfaces.StateConnecting
	s.mu.Unlock()

	conn, err := s.dial(ctx, s.url)
	if err != nil {
		s.mu.Lock()
		s.state = interfaces.StateClosed
		s.mu.Unlock()
		return fmt.Errorf("failed to open portfolio channel: %w", err)
	}

	// The identity payload is sent synchronously with the open event, once.
	if err := conn.WriteJSON(identity); err != nil {
		conn.Close()
		s.mu.Lock()
		s.state = interfaces.StateClosed
		s.mu.Unlock()
		return fmt.Errorf("failed to send identity payload: %w", err)
	}

	s.mu.Lock()
	if s.stopped {
		// Stop won the race while we were dialing.
		s.mu.Unlock()
		conn.Close()
		return ErrChannelClosed
	}
	s.conn = conn
	s.state = interfaces.StateOpen
	s.mu.Unlock()

	s.logger.Debug().Str("url", s.url).Msg("Portfolio channel open")

	go s.readLoop()
	return nil
}

// readLoop processes inbound frames strictly in arrival order. Each good
// frame wholly replaces the published snapshot; each bad frame is dropped
// and reported without touching published state.
func (s *PortfolioStream) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.handleClose()
			return
		}

		var snapshot models.PortfolioSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			s.logger.Warn().Err(err).Msg("Dropping malformed portfolio message")
			s.reportError(&MalformedMessageError{Err: err})
			continue
		}
		snapshot.Normalize()

		s.mu.Lock()
		s.current = &snapshot
		s.mu.Unlock()

		if s.cache != nil {
			if err := s.cache.Save(context.Background(), &snapshot); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to cache snapshot")
			}
		}

		select {
		case s.snapshots <- &snapshot:
		case <-s.done:
			return
		}
	}
}

// handleClose transitions to Closed on a transport-level close. When the
// close was not requested through Stop, the terminal state is surfaced on
// the error channel so the caller can prompt a manual refresh.
func (s *PortfolioStream) handleClose() {
	s.mu.Lock()
	wasStopped := s.stopped
	s.state = interfaces.StateClosed
	s.mu.Unlock()

	if !wasStopped {
		s.logger.Info().Msg("Portfolio channel closed by transport")
		s.reportError(ErrChannelClosed)
	}
}

func (s *PortfolioStream) reportError(err error) {
	select {
	case s.errs <- err:
	default:
		// Diagnostics channel full; the log line above already recorded it.
	}
}

// Stop closes the channel and transitions to Closed. Safe to call multiple
// times and safe mid-message.
func (s *PortfolioStream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.state = interfaces.StateClosed
	conn := s.conn
	s.mu.Unlock()

	close(s.done)
	if conn != nil {
		conn.Close()
	}
	s.logger.Debug().Msg("Portfolio channel stopped")
}

// State returns the current lifecycle state.
func (s *PortfolioStream) State() interfaces.StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshots delivers each normalized snapshot in arrival order.
func (s *PortfolioStream) Snapshots() <-chan *models.PortfolioSnapshot {
	return s.snapshots
}

// Errors delivers diagnostics: malformed frames and the terminal close.
func (s *PortfolioStream) Errors() <-chan error {
	return s.errs
}

// Current returns the last published snapshot, or nil before the first
// message arrives.
func (s *PortfolioStream) Current() *models.PortfolioSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Ensure PortfolioStream implements PortfolioStreamer
var _ interfaces.PortfolioStreamer = (*PortfolioStream)(nil)
