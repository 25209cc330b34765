package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/maputil"
	"github.com/gorilla/websocket"
)

var MaxUnreadEvents = 1024
var DefaultReplyTimeout = 10 * time.Second

// An RPC is a DevTools protocol connection to a single target.  Replies are routed
// back to their callers by message ID; everything else arrives on Messages().
type RPC struct {
	URL       string
	conn      *websocket.Conn
	messageId int64
	recv      chan *RpcMessage
	pending   map[int64]chan *RpcMessage
	pendlock  sync.Mutex
	sendlock  sync.Mutex
	recvlock  sync.RWMutex
	recvDone  bool
	closing   atomic.Bool
}

type RpcError struct {
	Code    int
	Message string
}

func (self *RpcError) Error() string {
	return fmt.Sprintf("code %d: %v", self.Code, self.Message)
}

type RpcMessage struct {
	ID     int64                  `json:"id,omitempty"`
	Method string                 `json:"method,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
	Result map[string]interface{} `json:"result,omitempty"`
	Error  map[string]interface{} `json:"error,omitempty"`
}

func (self *RpcMessage) P() *maputil.Map {
	return maputil.M(self.Params)
}

func (self *RpcMessage) R() *maputil.Map {
	return maputil.M(self.Result)
}

// Return the protocol error carried by this message, if any.
func (self *RpcMessage) Err() error {
	if len(self.Error) > 0 {
		eM := maputil.M(self.Error)

		return &RpcError{
			Code:    int(eM.Int(`code`)),
			Message: eM.String(`message`),
		}
	}

	return nil
}

func (self *RpcMessage) String() string {
	if data, err := json.Marshal(self); err == nil {
		return string(data)
	} else {
		return fmt.Sprintf("ERR<%v>", err)
	}
}

func NewRPC(wsUrl string) (*RPC, error) {
	rpc := &RPC{
		URL:     wsUrl,
		recv:    make(chan *RpcMessage, MaxUnreadEvents),
		pending: make(map[int64]chan *RpcMessage),
	}

	if conn, _, err := websocket.DefaultDialer.Dial(rpc.URL, nil); err == nil {
		rpc.conn = conn
		go rpc.startReading()

		return rpc, nil
	} else {
		return nil, err
	}
}

// Inject a message into the event stream as though the remote end had sent it.
func (self *RPC) SynthesizeEvent(message RpcMessage) {
	self.recvlock.RLock()
	defer self.recvlock.RUnlock()

	if self.recvDone {
		return
	}

	select {
	case self.recv <- &message:
	default:
		log.Warningf("[rpc] event queue full, dropped %v", message.Method)
	}
}

func (self *RPC) startReading() {
	defer self.shutdown()

	for {
		if self.closing.Load() {
			return
		}

		message := &RpcMessage{}

		if _, data, err := self.conn.ReadMessage(); err == nil {
			if err := json.Unmarshal(data, message); err == nil {
				if message.ID > 0 && self.deliverReply(message) {
					log.Debugf("[rpc] REPLY %d", message.ID)
					continue
				}

				self.recv <- message
			} else {
				log.Errorf("[rpc] failed to decode message: %v", err)
				return
			}
		} else if self.closing.Load() {
			return
		} else {
			log.Errorf("[rpc] failed to read: %v", err)
			return
		}
	}
}

func (self *RPC) deliverReply(message *RpcMessage) bool {
	self.pendlock.Lock()
	replyTo, ok := self.pending[message.ID]
	delete(self.pending, message.ID)
	self.pendlock.Unlock()

	if ok {
		replyTo <- message
	}

	return ok
}

func (self *RPC) Messages() <-chan *RpcMessage {
	return self.recv
}

func (self *RPC) Call(ctx context.Context, method string, params map[string]interface{}) (*RpcMessage, error) {
	return self.Send(ctx, &RpcMessage{
		Method: method,
		Params: params,
	}, true)
}

func (self *RPC) CallAsync(method string, params map[string]interface{}) error {
	_, err := self.Send(context.Background(), &RpcMessage{
		Method: method,
		Params: params,
	}, false)

	return err
}

// Write a message, optionally waiting for its reply.  A reply carrying a protocol
// error is returned as an *RpcError.
func (self *RPC) Send(ctx context.Context, message *RpcMessage, waitForReply bool) (*RpcMessage, error) {
	if self.closing.Load() {
		return nil, fmt.Errorf("cannot send, connection is closing")
	}

	mid := atomic.AddInt64(&self.messageId, 1)
	message.ID = mid

	var replyTo chan *RpcMessage

	if waitForReply {
		replyTo = make(chan *RpcMessage, 1)

		self.pendlock.Lock()
		self.pending[mid] = replyTo
		self.pendlock.Unlock()

		defer func() {
			self.pendlock.Lock()
			delete(self.pending, mid)
			self.pendlock.Unlock()
		}()
	}

	self.sendlock.Lock()
	err := self.conn.WriteJSON(message)
	self.sendlock.Unlock()

	if err != nil {
		return nil, err
	}

	log.Debugf("[rpc] WROTE: %v", message)

	if !waitForReply {
		return nil, nil
	}

	select {
	case reply, ok := <-replyTo:
		if !ok {
			return nil, fmt.Errorf("connection closed waiting for reply to message %d", mid)
		} else if err := reply.Err(); err != nil {
			return reply, err
		} else {
			return reply, nil
		}

	case <-ctx.Done():
		return nil, fmt.Errorf("timed out waiting for reply to message %d: %v", mid, ctx.Err())
	}
}

// Runs once the reader exits; the reader is the only goroutine that closes recv.
func (self *RPC) shutdown() {
	self.recvlock.Lock()
	self.recvDone = true
	close(self.recv)
	self.recvlock.Unlock()

	self.pendlock.Lock()
	defer self.pendlock.Unlock()

	for id, replyTo := range self.pending {
		close(replyTo)
		delete(self.pending, id)
	}
}

func (self *RPC) Close() error {
	if self.closing.CompareAndSwap(false, true) {
		log.Debug("[rpc] Closing RPC connection")
		return self.conn.Close()
	}

	return nil
}
