package server

import (
	"sync"
	"time"

	"github.com/ghetzel/go-stockutil/log"
	"github.com/gorilla/websocket"
)

var SessionConnCheckInterval = 10 * time.Second
var SessionWriteTimeout = 5 * time.Second
var MaxQueuedMessages = 256

// One websocket client of the /api/events stream.  Messages are queued by the
// broadcaster and written by the session's own goroutine.
type clientSession struct {
	ID       string
	Conn     *websocket.Conn
	Server   *Server
	outbox   chan *Message
	stop     chan struct{}
	stopOnce sync.Once
}

func newClientSession(id string, conn *websocket.Conn, server *Server) *clientSession {
	return &clientSession{
		ID:     id,
		Conn:   conn,
		Server: server,
		outbox: make(chan *Message, MaxQueuedMessages),
		stop:   make(chan struct{}),
	}
}

// Queue a message without blocking, dropping it if the client has fallen behind.
func (self *clientSession) Send(message *Message) bool {
	select {
	case <-self.stop:
		return false
	default:
	}

	select {
	case self.outbox <- message:
		return true
	default:
		log.Warningf("[server] session %v: dropped %v", self.ID, message.Event)
		return false
	}
}

func (self *clientSession) Run() {
	defer self.Stop()

	self.Conn.SetCloseHandler(func(code int, msg string) error {
		log.Debugf("[server] session %v: closed %d: %v", self.ID, code, msg)
		return self.Stop()
	})

	// the client never sends anything, but reading is how close frames get handled
	go func() {
		defer self.Stop()

		for {
			if _, _, err := self.Conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pinger := time.NewTicker(SessionConnCheckInterval)
	defer pinger.Stop()

	for {
		select {
		case <-self.stop:
			return

		case message := <-self.outbox:
			self.Conn.SetWriteDeadline(time.Now().Add(SessionWriteTimeout))

			if err := self.Conn.WriteJSON(message); err != nil {
				log.Debugf("[server] session %v: write failed: %v", self.ID, err)
				return
			}

		case <-pinger.C:
			if err := self.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(SessionWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (self *clientSession) Stop() error {
	var err error

	self.stopOnce.Do(func() {
		log.Debugf("[server] removing session %v", self.ID)
		close(self.stop)
		self.Server.sessions.Delete(self.ID)
		err = self.Conn.Close()
	})

	return err
}
