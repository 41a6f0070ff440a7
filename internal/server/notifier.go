package server

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"github.com/gogpu/retouch"
)

// Notifier forwards session events to remote clients.
type Notifier interface {
	Notify(sessionID string, ev retouch.Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(sessionID string, ev retouch.Event)

// Notify calls f.
func (f NotifierFunc) Notify(sessionID string, ev retouch.Event) { f(sessionID, ev) }

// eventPayload is the body of every socket.io notification.
type eventPayload struct {
	Session string `json:"session"`
	Filter  string `json:"filter"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
	Error   string `json:"error,omitempty"`
}

func newEventPayload(sessionID string, ev retouch.Event) eventPayload {
	p := eventPayload{
		Session: sessionID,
		Filter:  ev.Filter.String(),
		CanUndo: ev.CanUndo,
		CanRedo: ev.CanRedo,
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
	}
	return p
}

// socketNotifier emits events to the socket.io room named after the session.
// Clients fetch the preview over HTTP after a preview-changed event.
type socketNotifier struct {
	io *socketio.Server
}

func (n *socketNotifier) Notify(sessionID string, ev retouch.Event) {
	if err := n.io.To(socketio.Room(sessionID)).Emit(ev.Type.String(), newEventPayload(sessionID, ev)); err != nil {
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"event":      ev.Type.String(),
		}).WithError(err).Warn("Failed to emit event")
	}
}

// setupSocketIO builds the socket.io server. A client emits "join-session"
// with a session id to receive that session's events; has reports whether
// the id is live.
func setupSocketIO(allowedOrigins []string, has func(string) bool) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	origins := make([]any, len(allowedOrigins))
	for i, o := range allowedOrigins {
		origins[i] = o
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		log := logrus.WithField("socket_id", socket.Id())
		log.Debug("Socket connected")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-session", func(datas ...any) {
			sessionID, err := joinArg(datas, has)
			if err != nil {
				log.WithError(err).Warn("Rejected join-session")
				_ = socket.Emit("join-session-ack", map[string]any{"status": "error", "error": err.Error()})
				return
			}
			socket.Join(socketio.Room(sessionID))
			log.WithField("session_id", sessionID).Info("Socket joined session")
			_ = socket.Emit("join-session-ack", map[string]any{"status": "ok", "session": sessionID})
		})

		socket.On("disconnect", func(datas ...any) {
			log.Debug("Socket disconnected")
			socket.RemoveAllListeners("")
		})
	})
	return srv
}

// joinArg validates the arguments of a join-session message.
func joinArg(datas []any, has func(string) bool) (string, error) {
	if len(datas) == 0 {
		return "", fmt.Errorf("session id is required")
	}
	id, ok := datas[0].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("invalid session id")
	}
	if !has(id) {
		return "", errSessionNotFound
	}
	return id, nil
}
