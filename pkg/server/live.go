package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/signup/internal/signup"
	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/submit"
	"github.com/vango-dev/signup/pkg/toast"
)

// Client message types.
const (
	msgInput  = "input"
	msgBlur   = "blur"
	msgSubmit = "submit"
)

// clientMessage is a frame sent by live.js.
type clientMessage struct {
	Type   string          `json:"type"`
	Field  string          `json:"field,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Values json.RawMessage `json:"values,omitempty"`
}

type fieldMessage struct {
	Type    string   `json:"type"`
	Version uint64   `json:"version"`
	Field   string   `json:"field"`
	Errors  []string `json:"errors"`
}

type stateMessage struct {
	Type    string     `json:"type"`
	Version uint64     `json:"version"`
	State   form.State `json:"state"`
}

type eventMessage struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// liveSession is one WebSocket connection and the form context it edits.
type liveSession struct {
	server *Server
	conn   *websocket.Conn
	form   *form.Form[signup.Values]
	config LiveConfig
	logger *slog.Logger

	// version counts form state changes; replies carry it so the client
	// can drop stale ones.
	version atomic.Uint64

	submissions sync.WaitGroup
	// submitting is held from the submit frame until its reply, so a second
	// frame cannot replace the values of a running submission.
	submitting atomic.Bool

	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if !s.beginLive() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.liveWG.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sess := &liveSession{
		server: s,
		conn:   conn,
		form:   signup.NewForm(),
		config: s.config.Live,
		logger: s.logger.With("remote", r.RemoteAddr),
		closed: make(chan struct{}),
	}

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	unsubscribe := sess.form.Subscribe(func() { sess.version.Add(1) })
	defer unsubscribe()

	// Submissions are cancelled when the connection ends or the server
	// shuts down.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.liveCtx, func() {
		cancel()
		sess.close(websocket.CloseGoingAway, "server shutting down")
	})
	defer stop()

	sess.logger.Info("live session opened")
	go sess.pingLoop()
	sess.readLoop(ctx)
	cancel()
	sess.submissions.Wait()
	sess.close(websocket.CloseNormalClosure, "")
	sess.logger.Info("live session closed")
}

// readLoop reads frames until the connection fails or is closed.
func (l *liveSession) readLoop(ctx context.Context) {
	l.conn.SetReadLimit(l.config.MaxMessageBytes)
	_ = l.conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
	})

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				l.logger.Warn("read error", "error", err)
			}
			return
		}
		_ = l.conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.sendError("malformed message")
			continue
		}

		switch msg.Type {
		case msgInput:
			l.handleInput(msg)
		case msgBlur:
			l.handleBlur(msg)
		case msgSubmit:
			// Submissions run beside the read loop so pongs keep flowing
			// during the simulated delay.
			if !l.submitting.CompareAndSwap(false, true) {
				l.sendError(form.ErrSubmitInProgress.Error())
				continue
			}
			l.submissions.Add(1)
			go func() {
				defer l.submissions.Done()
				defer l.submitting.Store(false)
				l.handleSubmit(ctx, msg)
			}()
		default:
			l.sendError("unknown message type")
		}
	}
}

// pingLoop sends keepalive pings until the session closes.
func (l *liveSession) pingLoop() {
	ticker := time.NewTicker(l.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(l.config.WriteTimeout)
			if err := l.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-l.closed:
			return
		}
	}
}

func (l *liveSession) handleInput(msg clientMessage) {
	if !knownField(l.form, msg.Field) {
		l.sendError("unknown field")
		return
	}
	var value any
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &value); err != nil {
			l.sendError("malformed value")
			return
		}
	}

	before := l.snapshotTouched(msg.Field)
	l.form.Set(msg.Field, value)
	l.validateField(msg.Field)
	l.revalidate(before)
}

func (l *liveSession) handleBlur(msg clientMessage) {
	if !knownField(l.form, msg.Field) {
		l.sendError("unknown field")
		return
	}
	l.validateField(msg.Field)
}

func (l *liveSession) handleSubmit(ctx context.Context, msg clientMessage) {
	if len(msg.Values) > 0 {
		var values signup.Values
		if err := decodeStrict(msg.Values, &values); err != nil {
			l.sendError("malformed values")
			return
		}
		l.form.SetValues(values)
	}

	notice, err := l.server.submit(ctx, l.form, notifier{submitter: l.server.config.Submitter, session: l})
	l.sendState()
	if errors.Is(err, form.ErrSubmitInProgress) {
		return
	}
	if err := toast.Send(l, notice.Toast()); err != nil {
		l.logger.Debug("toast not delivered", "error", err)
	}
	if err == nil {
		l.form.Reset()
	}
}

// validateField validates one field and replies with its errors.
func (l *liveSession) validateField(field string) {
	l.form.ValidateField(field)
	errs := l.form.FieldErrors(field)
	if len(errs) > 0 {
		l.server.metrics.RecordValidation(map[string][]string{field: errs})
	}
	l.sendField(field, errs)
}

// snapshotTouched returns the errors of every touched field except skip.
func (l *liveSession) snapshotTouched(skip string) map[string][]string {
	out := make(map[string][]string)
	for _, field := range l.form.Fields() {
		if field != skip && l.form.IsTouched(field) {
			out[field] = append([]string(nil), l.form.FieldErrors(field)...)
		}
	}
	return out
}

// revalidate re-runs validation of the fields in before and replies for
// each field whose errors changed, as when editing the password changes
// whether the confirmation matches.
func (l *liveSession) revalidate(before map[string][]string) {
	for field, prev := range before {
		l.form.ValidateField(field)
		if now := l.form.FieldErrors(field); !slices.Equal(prev, now) {
			l.sendField(field, now)
		}
	}
}

func (l *liveSession) sendField(field string, errs []string) {
	if errs == nil {
		errs = []string{}
	}
	l.send(fieldMessage{Type: "field", Version: l.version.Load(), Field: field, Errors: errs})
}

func (l *liveSession) sendState() {
	l.send(stateMessage{Type: "state", Version: l.version.Load(), State: l.form.State()})
}

func (l *liveSession) sendError(message string) {
	l.send(errorMessage{Type: "error", Message: message})
}

// Emit implements toast.Emitter.
func (l *liveSession) Emit(event string, data any) error {
	return l.write(eventMessage{Type: "toast", Event: event, Data: data})
}

func (l *liveSession) send(v any) {
	if err := l.write(v); err != nil {
		l.logger.Debug("write failed", "error", err)
	}
}

// write sends one JSON text frame. gorilla/websocket allows one
// concurrent writer.
func (l *liveSession) write(v any) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	select {
	case <-l.closed:
		return websocket.ErrCloseSent
	default:
	}
	_ = l.conn.SetWriteDeadline(time.Now().Add(l.config.WriteTimeout))
	return l.conn.WriteJSON(v)
}

// close sends a close frame once and closes the connection.
func (l *liveSession) close(code int, reason string) {
	l.once.Do(func() {
		l.writeMu.Lock()
		close(l.closed)
		l.writeMu.Unlock()

		deadline := time.Now().Add(time.Second)
		_ = l.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = l.conn.Close()
	})
}

// notifier pushes the submitting state before the submitter runs.
type notifier struct {
	submitter signup.Submitter
	session   *liveSession
}

func (n notifier) Submit(ctx context.Context, req submit.Request) (submit.Receipt, error) {
	n.session.sendState()
	return n.submitter.Submit(ctx, req)
}
