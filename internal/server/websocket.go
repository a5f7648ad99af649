package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/glengine/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// client is one websocket subscriber. Only its push loop writes to conn.
type client struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if int(s.clientN.Add(1)) > s.config.MaxClients {
		s.clientN.Add(-1)
		s.logger.Warn("Maximum clients reached, rejecting connection", log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.clientN.Add(-1)
		s.logger.Warn("Websocket upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}

	c := &client{conn: conn, done: make(chan struct{})}
	s.clients.Store(conn, c)
	s.logger.Debug("Inspector client connected", log.String("remote_addr", r.RemoteAddr))
	defer func() {
		c.close()
		s.clients.Delete(conn)
		s.clientN.Add(-1)
		s.logger.Debug("Inspector client disconnected", log.String("remote_addr", r.RemoteAddr))
	}()

	go s.readLoop(c)
	s.pushLoop(c)
}

// readLoop discards incoming messages; it exists to process control frames
// and notice when the peer goes away.
func (s *Server) readLoop(c *client) {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) pushLoop(c *client) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		if err := s.push(c); err != nil {
			return
		}
		select {
		case <-c.done:
			return
		case <-s.stop:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "inspector stopping"),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) push(c *client) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := c.conn.WriteJSON(s.Snapshot()); err != nil {
		s.logger.Debug("Snapshot push failed", log.Error(err))
		return err
	}
	return nil
}
