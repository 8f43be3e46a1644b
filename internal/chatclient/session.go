// Package chatclient implements the client side of the ticket chat
// protocol: connection lifecycle, reconnection with backoff, history
// replay handling, and message send.
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/chat"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
)

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var (
	// ErrEmptyMessage is returned by Send when the trimmed message is empty.
	// Empty messages are rejected before any network traffic.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotConnected is returned by Send unless the session is connected.
	ErrNotConnected = errors.New("not connected")
)

const (
	defaultBaseDelay   = 2 * time.Second
	defaultMaxAttempts = 5
	sendTimeout        = 10 * time.Second
)

// Config configures a chat session for one ticket.
type Config struct {
	// URL is the chat WebSocket endpoint, e.g. "ws://localhost:8080/ws/chat".
	URL string
	// TicketID is the ticket room to join.
	TicketID string
	// BaseDelay is the reconnect backoff unit; the nth retry waits n*BaseDelay.
	// Defaults to 2s.
	BaseDelay time.Duration
	// MaxAttempts caps automatic reconnects before the session gives up.
	// Defaults to 5. A manual rejoin is a new Session, which resets the count.
	MaxAttempts int
	// Dial opens the transport. Defaults to a coder/websocket dialer;
	// tests inject fakes.
	Dial DialFunc

	// Callbacks run on the session's own goroutine, in delivery order.
	// They must return promptly and must not call Close, which waits for
	// that goroutine to exit.

	// OnHistory is called after a join replays the ticket's history.
	OnHistory func(messages []domain.ChatMessage)
	// OnMessage is called for each relayed live message, including the
	// authoritative echo of this session's own sends.
	OnMessage func(msg domain.ChatMessage)
	// OnState is called on every state transition.
	OnState func(state State)
	// OnError is called for server-reported protocol errors.
	OnError func(message string)
}

// Session manages one ticket's chat lifecycle. Messages are never echoed
// locally: the list updates only from the gateway's broadcast, so local
// state cannot diverge from the stored log.
type Session struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	started   bool
	state     State
	conn      Conn
	messages  []domain.ChatMessage
	exhausted bool
}

// NewSession creates a session for one ticket. Call Start to connect.
func NewSession(cfg Config) *Session {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Dial == nil {
		cfg.Dial = dialWebSocket
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the connect/reconnect loop. Calling it twice is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	go s.run()
}

// Close deliberately tears the session down: the transport is closed and
// any pending reconnect is cancelled. The session cannot be restarted.
// Close blocks until the session goroutine exits, so it must not be
// called from inside a callback.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	conn := s.conn
	s.conn = nil
	started := s.started
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	s.notifyState(StateClosed)
	if started {
		<-s.done
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Exhausted reports whether automatic reconnection gave up after the
// configured maximum attempts. The UI shows a persistent disconnected
// indicator when this is true.
func (s *Session) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// Messages returns a snapshot of the message list.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send transmits a chat message. The text is trimmed and rejected if
// empty; sends are only allowed while connected. The message is not added
// to the local list: it arrives back via the gateway's broadcast.
func (s *Session) Send(sendBy, senderName string, role domain.SenderRole, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}

	frame := chat.ClientFrame{
		Type:       chat.TypeChatMessage,
		SendBy:     sendBy,
		SenderName: senderName,
		SenderRole: role,
		Message:    text,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(s.ctx, sendTimeout)
	defer cancel()
	return conn.Write(ctx, data)
}

func (s *Session) run() {
	defer close(s.done)

	attempt := 0
	for {
		if !s.setState(StateConnecting) {
			return
		}

		conn, err := s.connect()
		if err == nil {
			attempt = 0 // a successful join resets the backoff
			s.readLoop(conn)
			_ = conn.Close()
		}

		if s.ctx.Err() != nil {
			return
		}
		if !s.setState(StateDisconnected) {
			return
		}

		// Backoff: attempt * base delay, give up after the cap.
		attempt++
		if attempt > s.cfg.MaxAttempts {
			s.mu.Lock()
			s.exhausted = true
			s.mu.Unlock()
			return
		}
		if !s.sleep(time.Duration(attempt) * s.cfg.BaseDelay) {
			return
		}
	}
}

// connect dials the endpoint and sends the join request. The session
// counts as connected once the join frame is on the wire; the gateway
// replies with the history replay and the joined ack.
func (s *Session) connect() (Conn, error) {
	conn, err := s.cfg.Dial(s.ctx, s.cfg.URL)
	if err != nil {
		return nil, err
	}

	join := chat.ClientFrame{Type: chat.TypeJoinTicket, TicketID: s.cfg.TicketID}
	data, err := json.Marshal(join)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	writeCtx, cancel := context.WithTimeout(s.ctx, sendTimeout)
	err = conn.Write(writeCtx, data)
	cancel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		_ = conn.Close()
		return nil, ErrNotConnected
	}
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()
	s.notifyState(StateConnected)
	return conn, nil
}

func (s *Session) readLoop(conn Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
	}()

	for {
		data, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
		s.handleEvent(data)
	}
}

func (s *Session) handleEvent(data []byte) {
	var event chat.ServerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return
	}

	switch event.Type {
	case chat.TypeChatHistory:
		// A malformed payload degrades to an empty history rather than
		// breaking the session.
		var messages []domain.ChatMessage
		if err := json.Unmarshal(event.Messages, &messages); err != nil || messages == nil {
			messages = []domain.ChatMessage{}
		}
		s.mu.Lock()
		s.messages = messages
		s.mu.Unlock()
		if s.cfg.OnHistory != nil {
			s.cfg.OnHistory(messages)
		}
	case chat.TypeNewMessage:
		var msg domain.ChatMessage
		if err := json.Unmarshal(event.Message, &msg); err != nil {
			return
		}
		s.mu.Lock()
		s.messages = append(s.messages, msg)
		s.mu.Unlock()
		if s.cfg.OnMessage != nil {
			s.cfg.OnMessage(msg)
		}
	case chat.TypeJoinedTicket:
		// Ack only; the history event already arrived.
	case chat.TypeError:
		var msg string
		if err := json.Unmarshal(event.Message, &msg); err != nil {
			msg = "server error"
		}
		if s.cfg.OnError != nil {
			s.cfg.OnError(msg)
		}
	}
}

// setState transitions to next unless the session was closed. It reports
// whether the transition happened.
func (s *Session) setState(next State) bool {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false
	}
	changed := s.state != next
	s.state = next
	s.mu.Unlock()
	if changed {
		s.notifyState(next)
	}
	return true
}

func (s *Session) notifyState(state State) {
	if s.cfg.OnState != nil {
		s.cfg.OnState(state)
	}
}

// sleep waits for d or until the session is closed.
func (s *Session) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}
