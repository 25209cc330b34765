// Package server exposes a Scroller over HTTP: its current state, a way to start
// animated scrolls, and a websocket stream of everything it observes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/httputil"
	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/maputil"
	"github.com/ghetzel/go-stockutil/stringutil"
	"github.com/gorilla/websocket"
	"github.com/husobee/vestigo"
	"github.com/urfave/negroni"
)

// How long a request waits for the platform to run its work.
var DefaultRequestTimeout = 5 * time.Second

type Message struct {
	Event    string  `json:"event"`
	Position float64 `json:"position"`
	Previous float64 `json:"previous"`
	Target   string  `json:"target,omitempty"`
	Selector string  `json:"selector,omitempty"`
}

type Status struct {
	Container    string           `json:"container"`
	Position     float64          `json:"position"`
	Previous     float64          `json:"previous"`
	ScrollSize   float64          `json:"scroll_size"`
	ViewportSize float64          `json:"viewport_size"`
	Direction    scroll.Direction `json:"direction"`
	Animating    bool             `json:"animating"`
	Scrolling    bool             `json:"scrolling"`
	Watching     []string         `json:"watching"`
}

type ScrollResponse struct {
	From        float64       `json:"from"`
	To          float64       `json:"to"`
	Destination float64       `json:"destination"`
	Duration    time.Duration `json:"duration"`
}

// A Server monitors one Scroller.  Everything that touches the Scroller is posted
// to its platform, so handlers never race the platform's own callbacks.
type Server struct {
	scroller *scroll.Scroller
	platform scroll.Platform
	handler  *negroni.Negroni
	upgrader websocket.Upgrader
	sessions sync.Map
	watching []string
	timeout  time.Duration
	closed   atomic.Bool
	setup    sync.Once
}

func NewServer(scroller *scroll.Scroller) *Server {
	server := &Server{
		scroller: scroller,
		platform: scroller.Platform(),
		watching: make([]string, 0),
		timeout:  DefaultRequestTimeout,
	}

	server.platform.Post(server.attach)

	return server
}

func (self *Server) SetRequestTimeout(timeout time.Duration) {
	if timeout > 0 {
		self.timeout = timeout
	}
}

func (self *Server) attach() {
	self.scroller.OnScroll(self.relay(`scroll`))
	self.scroller.OnScrollForward(self.relay(`forward`))
	self.scroller.OnScrollBackward(self.relay(`backward`))
	self.scroller.OnScrollStart(self.relay(`start`))
	self.scroller.OnScrollEnd(self.relay(`end`))

	if _, err := self.platform.AddListener(
		self.scroller.Container(),
		scroll.EventNavigatePatterns,
		func(event *events.Event) {
			self.Broadcast(&Message{
				Event:    strings.TrimPrefix(event.Name, `Scroll.`),
				Position: self.scroller.Position(),
				Previous: self.scroller.PreviousPosition(),
				Target:   event.D().String(`target`),
			})
		},
	); err != nil {
		log.Warningf("[server] cannot relay navigation: %v", err)
	}
}

func (self *Server) relay(name string) scroll.Handler {
	return func(scroller *scroll.Scroller) {
		self.Broadcast(&Message{
			Event:    name,
			Position: scroller.Position(),
			Previous: scroller.PreviousPosition(),
		})
	}
}

// Stream enter and leave events for every element matching selector.
func (self *Server) Watch(selector string) {
	self.platform.Post(func() {
		watch := func(name string) scroll.IntersectionHandler {
			return func(entry scroll.IntersectionEntry) {
				self.Broadcast(&Message{
					Event:    name,
					Position: self.scroller.Position(),
					Previous: self.scroller.PreviousPosition(),
					Target:   entry.Target.ID(),
					Selector: selector,
				})
			}
		}

		if err := self.scroller.OnScrollIn(selector, watch(`enter`)); err != nil {
			log.Warningf("[server] cannot watch %q: %v", selector, err)
			return
		}

		if err := self.scroller.OnScrollOut(selector, watch(`leave`)); err != nil {
			log.Warningf("[server] cannot watch %q: %v", selector, err)
			return
		}

		self.watching = append(self.watching, selector)
		log.Debugf("[server] watching %q", selector)
	})
}

// Queue a message for every connected client.
func (self *Server) Broadcast(message *Message) {
	if self.closed.Load() {
		return
	}

	self.sessions.Range(func(_ interface{}, v interface{}) bool {
		if session, ok := v.(*clientSession); ok {
			session.Send(message)
		}

		return true
	})
}

// Run fn on the platform and wait for it to finish.
func (self *Server) call(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, self.timeout)
	defer cancel()

	result := make(chan error, 1)

	self.platform.Post(func() {
		result <- fn()
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("platform did not respond: %v", ctx.Err())
	}
}

func (self *Server) Status(ctx context.Context) (*Status, error) {
	var status Status

	if err := self.call(ctx, func() error {
		status = Status{
			Container:    self.scroller.Container().ID(),
			Position:     self.scroller.Position(),
			Previous:     self.scroller.PreviousPosition(),
			ScrollSize:   self.scroller.ScrollSize(),
			ViewportSize: self.scroller.ViewportSize(),
			Direction:    self.scroller.Direction(),
			Animating:    self.scroller.IsAnimating(),
			Scrolling:    self.scroller.IsScrolling(),
			Watching:     append([]string{}, self.watching...),
		}

		return nil
	}); err == nil {
		return &status, nil
	} else {
		return nil, err
	}
}

// Start an animated scroll described by a request body of the form
// {"target": 1200 | "#selector", "duration": "600ms" | 600, "easing": "linear"}.
func (self *Server) ScrollTo(ctx context.Context, body map[string]interface{}) (*ScrollResponse, error) {
	params := maputil.M(body)
	options := &scroll.ScrollToOptions{}

	target := body[`target`]

	switch t := target.(type) {
	case float64:
		break
	case string:
		if t == `` {
			return nil, fmt.Errorf("must provide a scroll target")
		}
	default:
		return nil, fmt.Errorf("unsupported scroll target %v", target)
	}

	switch d := body[`duration`].(type) {
	case nil:
		break
	case float64:
		options.Duration = time.Duration(d * float64(time.Millisecond))
	case string:
		if duration, err := time.ParseDuration(d); err == nil {
			options.Duration = duration
		} else {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported duration %v", d)
	}

	if name := params.String(`easing`); name != `` {
		if easing, ok := scroll.EasingByName(name); ok {
			options.Easing = easing
		} else {
			return nil, fmt.Errorf("unknown easing %q", name)
		}
	}

	var response ScrollResponse

	if err := self.call(ctx, func() error {
		if animation, err := self.scroller.ScrollTo(target, options); err == nil {
			response = ScrollResponse{
				From:        animation.From(),
				To:          animation.To(),
				Destination: animation.Destination(),
				Duration:    animation.Duration(),
			}

			return nil
		} else {
			return err
		}
	}); err == nil {
		return &response, nil
	} else {
		return nil, err
	}
}

func (self *Server) Handler() http.Handler {
	self.setup.Do(func() {
		self.handler = negroni.New()
		router := vestigo.NewRouter()

		// setup panic recovery handler
		self.handler.Use(negroni.NewRecovery())

		self.setupRoutes(router)
		self.handler.UseHandler(router)
	})

	return self.handler
}

func (self *Server) ListenAndServe(address string) error {
	log.Infof("[server] listening at %v", address)
	return http.ListenAndServe(address, self.Handler())
}

// Disconnect every client.  The Scroller is left running.
func (self *Server) Close() error {
	self.closed.Store(true)

	self.sessions.Range(func(_ interface{}, v interface{}) bool {
		if session, ok := v.(*clientSession); ok {
			session.Stop()
		}

		return true
	})

	return nil
}

func (self *Server) setupRoutes(router *vestigo.Router) {
	router.SetGlobalCors(&vestigo.CorsAccessControl{
		AllowOrigin:      []string{`*`},
		AllowCredentials: true,
		AllowMethods:     []string{`GET`, `POST`},
		MaxAge:           3600 * time.Second,
		AllowHeaders:     []string{`*`},
	})

	router.Get(`/api/status`, func(w http.ResponseWriter, req *http.Request) {
		if status, err := self.Status(req.Context()); err == nil {
			httputil.RespondJSON(w, status)
		} else {
			httputil.RespondJSON(w, err, http.StatusServiceUnavailable)
		}
	})

	router.Post(`/api/scroll`, func(w http.ResponseWriter, req *http.Request) {
		var body map[string]interface{}

		if err := httputil.ParseRequest(req, &body); err != nil {
			httputil.RespondJSON(w, err, http.StatusBadRequest)
			return
		}

		if response, err := self.ScrollTo(req.Context(), body); err == nil {
			httputil.RespondJSON(w, response, http.StatusAccepted)
		} else {
			httputil.RespondJSON(w, err, http.StatusBadRequest)
		}
	})

	router.Get(`/api/events`, func(w http.ResponseWriter, req *http.Request) {
		if self.closed.Load() {
			httputil.RespondJSON(w, fmt.Errorf("server is closed"), http.StatusServiceUnavailable)
			return
		}

		sid := req.Header.Get(`Sec-Websocket-Protocol`)
		var header http.Header

		if sid == `` {
			sid = stringutil.UUID().String()
		} else {
			header = http.Header{
				`Sec-Websocket-Protocol`: []string{sid},
			}
		}

		if _, ok := self.sessions.Load(sid); ok {
			httputil.RespondJSON(w, fmt.Errorf("session %v already exists", sid), http.StatusConflict)
			return
		}

		// the upgrader has already responded if this fails
		if conn, err := self.upgrader.Upgrade(w, req, header); err == nil {
			session := newClientSession(sid, conn, self)
			self.sessions.Store(sid, session)

			log.Debugf("[server] session %v connected", sid)
			go session.Run()
		} else {
			log.Warningf("[server] websocket upgrade failed: %v", err)
		}
	})
}

// The number of connected event stream clients.
func (self *Server) Sessions() int {
	var count int

	self.sessions.Range(func(_ interface{}, _ interface{}) bool {
		count += 1
		return true
	})

	return count
}
