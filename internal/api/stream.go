package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
)

const streamWriteWait = 10 * time.Second

func (s *Server) newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
}

// originAllowed applies the CORS origin list to websocket upgrades. A
// pattern may hold one "*" wildcard. Requests without an Origin header
// come from non-browser clients and are accepted.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := strings.ToLower(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		allowed = strings.ToLower(allowed)
		if allowed == "*" || allowed == origin {
			return true
		}
		prefix, suffix, ok := strings.Cut(allowed, "*")
		if ok && len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// spinStreamer writes one frame per spin. It stops writing after the first
// failure; the session still runs to completion.
type spinStreamer struct {
	conn *websocket.Conn
	err  error
}

func (st *spinStreamer) write(frame StreamFrame) {
	if st.err != nil {
		return
	}
	st.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	st.err = st.conn.WriteJSON(frame)
}

func (st *spinStreamer) OnSpin(_ int, spin simulator.SpinResult) {
	st.write(StreamFrame{Type: "spin", Spin: &spin})
}

func (st *spinStreamer) OnSessionEnd(_ int, result simulator.SessionResult) {
	st.write(StreamFrame{Type: "result", Result: &result})
}

// handleStream upgrades to a websocket and plays one session, sending each
// spin as it settles and the session result last. Request errors are
// returned as plain JSON before the upgrade.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := parseSimulateQuery(q.Get, q["param"])
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	p, err := ValidateSimulateRequest(&req, maxStreamSpins)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	st, err := p.buildStrategy()
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	streamer := &spinStreamer{conn: conn}
	sim := simulator.New(p.spec.Wheel(0),
		simulator.WithHistory(false),
		simulator.WithObserver(streamer),
		simulator.WithLogger(s.logger.Named("simulator")))
	result := sim.Run(st, p.cfg)

	if streamer.err != nil {
		s.logger.Warn("stream aborted", zap.String("strategy", p.key), zap.Error(streamer.err))
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, result.EndReason.String()),
		time.Now().Add(streamWriteWait))
}
