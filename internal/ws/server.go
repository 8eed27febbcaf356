package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-suitstrip/internal/diagnostics"
	"github.com/coreman2200/funtimes-suitstrip/internal/metrics"
	"github.com/coreman2200/funtimes-suitstrip/internal/render"
)

const (
	sendQueue    = 16
	writeTimeout = 200 * time.Millisecond
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server streams frames and diagnostics to preview clients and accepts
// control commands over websockets.
type Server struct {
	eng      *render.Engine
	every    uint64
	start    time.Time
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	clients     map[*client]bool
	diagClients map[*client]bool
}

// NewServer hooks into eng. Only every Nth frame is streamed to preview
// clients so the UI is not flooded at the hardware frame rate.
func NewServer(eng *render.Engine, every int) *Server {
	if every <= 0 {
		every = 1
	}
	s := &Server{
		eng:         eng,
		every:       uint64(every),
		start:       time.Now(),
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
	}
	eng.OnFrame(s.broadcastFrame)
	eng.OnDiagnostic(s.pushDiag)
	return s
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/frames", s.HandleFramesWS)
	mux.HandleFunc("/ws/control", s.HandleControlWS)
	mux.HandleFunc("/ws/diag", s.HandleDiagWS)
	mux.HandleFunc("/healthz", s.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("frames upgrade")
		return
	}
	c := s.register(conn, s.clients)

	if top, err := json.Marshal(map[string]any{"segments": s.eng.Outputs()}); err != nil {
		log.Warn().Err(err).Msg("marshal topology")
	} else {
		c.send <- top
	}

	s.readUntilClosed(c, s.clients)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("diag upgrade")
		return
	}
	c := s.register(conn, s.diagClients)
	s.readUntilClosed(c, s.diagClients)
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("control upgrade")
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		resp := reply{OK: true}
		if err := s.control(data); err != nil {
			resp = reply{OK: false, Error: err.Error()}
			log.Debug().Err(err).Msg("control message rejected")
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"frame_id": s.eng.FrameID(),
		"uptime_s": time.Since(s.start).Seconds(),
		"fps":      s.eng.FPS(),
		"segments": len(s.eng.Outputs()),
		"clients":  clients,
	})
	if err != nil {
		log.Debug().Err(err).Msg("write health")
	}
}

func (s *Server) register(conn *websocket.Conn, set map[*client]bool) *client {
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	s.mu.Lock()
	set[c] = true
	s.mu.Unlock()
	go c.writeLoop()
	return c
}

// readUntilClosed blocks until the peer goes away, then unregisters c.
func (s *Server) readUntilClosed(c *client, set map[*client]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, c)
		close(c.send)
		s.mu.Unlock()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
			// closing unblocks the reader, which closes send
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.Close()
}

// broadcastFrame runs on the render goroutine and must not block.
func (s *Server) broadcastFrame(f render.Frame) {
	if f.ID%s.every != 0 {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.clients) == 0 {
		return
	}
	b, err := json.Marshal(f)
	if err != nil {
		log.Warn().Err(err).Msg("marshal frame")
		return
	}
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (s *Server) pushDiag(d diag.Diagnostic) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.diagClients) == 0 {
		return
	}
	b, err := json.Marshal(d)
	if err != nil {
		log.Warn().Err(err).Str("code", d.Code).Msg("marshal diagnostic")
		return
	}
	for c := range s.diagClients {
		select {
		case c.send <- b:
		default:
		}
	}
}
