package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/maputil"
	"github.com/mafredri/cdp/devtool"
)

var consoleEvents = `Runtime.consoleAPICalled`
var urlTrackingEvents = `Page.{frameNavigated,navigatedWithinDocument}`

type PageInfo struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// A Tab is a connection to one page target in the browser.
type Tab struct {
	browser        *Browser
	target         *devtool.Target
	rpc            *RPC
	waiters        sync.Map
	infolock       sync.Mutex
	mostRecentInfo PageInfo
}

func newTabFromTarget(browser *Browser, target *devtool.Target) (*Tab, error) {
	tab := &Tab{
		browser: browser,
		target:  target,
		mostRecentInfo: PageInfo{
			URL:   target.URL,
			State: `initial`,
		},
	}

	return tab, tab.connect()
}

func (self *Tab) Info() PageInfo {
	self.infolock.Lock()
	defer self.infolock.Unlock()

	return self.mostRecentInfo
}

func (self *Tab) setInfo(url string, state string) {
	self.infolock.Lock()
	defer self.infolock.Unlock()

	if url != `` {
		self.mostRecentInfo.URL = url
	}

	if state != `` {
		self.mostRecentInfo.State = state
	}
}

func (self *Tab) ID() string {
	return self.target.ID
}

func (self *Tab) Disconnect() error {
	return self.rpc.Close()
}

// Emit a synthetic event to this tab's event handlers.
func (self *Tab) Emit(method string, params map[string]interface{}) {
	self.rpc.SynthesizeEvent(RpcMessage{
		Method: method,
		Params: params,
	})
}

// Navigate to the given URL and wait for the page to finish loading.
func (self *Tab) Navigate(ctx context.Context, url string) error {
	waiter, err := self.CreateEventWaiter(`Page.loadEventFired`)

	if err != nil {
		return err
	}

	defer waiter.Remove()

	self.setInfo(url, `loading`)

	if result, err := self.RPC(`Page`, `navigate`, map[string]interface{}{
		`url`: url,
	}); err == nil {
		if errText := result.R().String(`errorText`); errText != `` {
			self.setInfo(``, `failed`)
			return fmt.Errorf("navigate to %v: %v", url, errText)
		}
	} else {
		return err
	}

	if _, err := waiter.Wait(ctx); err == nil {
		self.setInfo(``, `loaded`)
		log.Debugf("[tab] loaded %v", url)
		return nil
	} else {
		return err
	}
}

func (self *Tab) connect() error {
	if conn, err := NewRPC(self.target.WebSocketDebuggerURL); err == nil {
		self.rpc = conn

		return self.setupEvents()
	} else {
		return err
	}
}

func (self *Tab) AsyncRPC(module string, method string, args map[string]interface{}) error {
	return self.rpc.CallAsync(
		fmt.Sprintf("%s.%s", module, method),
		args,
	)
}

func (self *Tab) RPC(module string, method string, args map[string]interface{}) (*RpcMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultReplyTimeout)
	defer cancel()

	return self.rpc.Call(ctx, fmt.Sprintf("%s.%s", module, method), args)
}

// Evaluate a Javascript expression in the page and return its value, awaiting the
// result if it is a Promise.
func (self *Tab) Evaluate(script string) (interface{}, error) {
	if reply, err := self.RPC(`Runtime`, `evaluate`, map[string]interface{}{
		`expression`:    script,
		`returnByValue`: true,
		`awaitPromise`:  true,
	}); err == nil {
		if details, ok := reply.Result[`exceptionDetails`]; ok && details != nil {
			dM := maputil.M(details)

			return nil, &JavascriptError{
				Text:       dM.String(`exception.description`, dM.String(`text`)),
				LineNumber: int(dM.Int(`lineNumber`)),
			}
		}

		if result, ok := reply.Result[`result`].(map[string]interface{}); ok {
			return result[`value`], nil
		}

		return nil, nil
	} else {
		return nil, err
	}
}

// Evaluate a Javascript expression and decode its value into the given pointer.
func (self *Tab) EvaluateInto(script string, into interface{}) error {
	if value, err := self.Evaluate(script); err == nil {
		if data, err := json.Marshal(value); err == nil {
			return json.Unmarshal(data, into)
		} else {
			return err
		}
	} else {
		return err
	}
}

// Evaluate a Javascript expression without waiting for the result.
func (self *Tab) EvaluateAsync(script string) error {
	return self.AsyncRPC(`Runtime`, `evaluate`, map[string]interface{}{
		`expression`: script,
	})
}

// Expose a function named name on the page's window object.  Each call from the
// page arrives as a Runtime.bindingCalled event.
func (self *Tab) AddBinding(name string) error {
	_, err := self.RPC(`Runtime`, `addBinding`, map[string]interface{}{
		`name`: name,
	})

	return err
}

// Register a script to run in every document this tab loads from now on.
func (self *Tab) AddScriptToNewDocuments(source string) error {
	_, err := self.RPC(`Page`, `addScriptToEvaluateOnNewDocument`, map[string]interface{}{
		`source`: source,
	})

	return err
}

func (self *Tab) setupEvents() error {
	// do this before any events will be emitted, otherwise the event loop will block
	go self.startEventReceiver()

	self.registerInternalEvents()

	for _, domain := range []string{`Runtime`, `Page`} {
		if err := self.AsyncRPC(domain, `enable`, nil); err != nil {
			return err
		}
	}

	return nil
}

func (self *Tab) startEventReceiver() {
	for message := range self.rpc.Messages() {
		event := eventFromRpcResponse(message)

		if name := event.Name; name != `` {
			log.Debugf("[event] %v", name)
		}

		// delivered in order; a waiter that falls too far behind loses events
		self.waiters.Range(func(_ interface{}, waiterI interface{}) bool {
			if waiter, ok := waiterI.(*EventWaiter); ok && waiter.Match(event) {
				select {
				case waiter.Events <- event:
				default:
					log.Warningf("[tab] waiter %v is full, dropped %v", waiter.id, event.Name)
				}
			}

			return true
		})
	}

	log.Debugf("[tab] %v disconnected", self.ID())

	self.waiters.Range(func(id interface{}, waiterI interface{}) bool {
		self.waiters.Delete(id)
		close(waiterI.(*EventWaiter).Events)
		return true
	})
}

func (self *Tab) registerInternalEvents() {
	self.RegisterEventHandler(consoleEvents, func(event *Event) {
		var level log.Level

		switch event.P().String(`type`) {
		case `warning`:
			level = log.WARNING
		case `error`, `assert`:
			level = log.ERROR
		case `debug`:
			level = log.DEBUG
		case `info`:
			level = log.INFO
		default:
			level = log.NOTICE
		}

		args := make([]interface{}, 0)

		for _, arg := range event.P().Slice(`args`) {
			argM := maputil.M(arg)
			args = append(args, argM.String(`value`, argM.String(`description`)))
		}

		log.Logf(level, "[CONSOLE] %v", fmt.Sprint(args...))
	})

	self.RegisterEventHandler(urlTrackingEvents, func(event *Event) {
		switch event.Name {
		case `Page.frameNavigated`:
			if event.P().String(`frame.parentId`) == `` {
				self.setInfo(event.P().String(`frame.url`), ``)
			}

		case `Page.navigatedWithinDocument`:
			self.setInfo(event.P().String(`url`), ``)
		}
	})
}

func (self *Tab) CreateEventWaiter(eventGlob string) (*EventWaiter, error) {
	if waiter, err := NewEventWaiter(self, eventGlob); err == nil {
		self.waiters.Store(waiter.id, waiter)
		return waiter, nil
	} else {
		return nil, err
	}
}

func (self *Tab) RemoveWaiter(id string) {
	self.waiters.Delete(id)
}

func (self *Tab) WaitFor(ctx context.Context, eventGlob string) (*Event, error) {
	if waiter, err := self.CreateEventWaiter(eventGlob); err == nil {
		defer self.RemoveWaiter(waiter.id)

		log.Debugf("[tab] waiting for %v", eventGlob)
		return waiter.Wait(ctx)
	} else {
		return nil, err
	}
}

// Run callback for every event matching eventGlob until the tab disconnects or
// the handler is removed with RemoveWaiter.
func (self *Tab) RegisterEventHandler(eventGlob string, callback EventCallbackFunc) (string, error) {
	if waiter, err := self.CreateEventWaiter(eventGlob); err == nil {
		log.Debugf("[tab] registered persistent handler for %v", eventGlob)

		go func() {
			for event := range waiter.Events {
				callback(event)
			}
		}()

		return waiter.id, nil
	} else {
		return ``, err
	}
}
