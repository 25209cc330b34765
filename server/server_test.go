package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-scrollfriend/virtual"
	"github.com/ghetzel/testify/require"
	"github.com/gorilla/websocket"
)

type testRig struct {
	page     *virtual.Page
	scroller *scroll.Scroller
	server   *Server
	http     *httptest.Server
	stop     chan struct{}
	done     chan struct{}
}

// Build a page with five sections and a server on its scroller, then render frames
// on a background goroutine, which becomes the only one touching the page.
func newTestRig(t *testing.T) *testRig {
	page := virtual.NewPage(800, 600)

	for i := 0; i < 5; i++ {
		page.MustAdd(virtual.ElementSpec{
			ID:      fmt.Sprintf("s%d", i),
			Classes: []string{`section`},
			Rect: scroll.Rect{
				Top:    float64(i) * 600,
				Width:  800,
				Height: 600,
			},
		})
	}

	scroller, err := scroll.New(page, nil, nil)
	require.NoError(t, err)

	rig := &testRig{
		page:     page,
		scroller: scroller,
		server:   NewServer(scroller),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	rig.http = httptest.NewServer(rig.server.Handler())

	go func() {
		defer close(rig.done)

		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-rig.stop:
				return
			case <-ticker.C:
				page.Step(virtual.FrameInterval)
			}
		}
	}()

	return rig
}

func (self *testRig) Close() {
	self.server.Close()
	self.http.Close()
	close(self.stop)
	<-self.done
}

func (self *testRig) status(t *testing.T) Status {
	var status Status

	response, err := http.Get(self.http.URL + `/api/status`)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
	require.NoError(t, json.NewDecoder(response.Body).Decode(&status))

	return status
}

func (self *testRig) scroll(t *testing.T, body string) (int, map[string]interface{}) {
	var reply map[string]interface{}

	response, err := http.Post(self.http.URL+`/api/scroll`, `application/json`, bytes.NewBufferString(body))
	require.NoError(t, err)
	defer response.Body.Close()

	require.NoError(t, json.NewDecoder(response.Body).Decode(&reply))
	return response.StatusCode, reply
}

func eventually(t *testing.T, fn func() bool) {
	deadline := time.Now().Add(3 * time.Second)

	for !fn() {
		if time.Now().After(deadline) {
			t.Fatal("condition never became true")
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatus(t *testing.T) {
	assert := require.New(t)
	rig := newTestRig(t)
	defer rig.Close()

	rig.server.Watch(`.section`)

	status := rig.status(t)
	assert.Equal(`document`, status.Container)
	assert.Equal(0.0, status.Position)
	assert.Equal(3000.0, status.ScrollSize)
	assert.Equal(600.0, status.ViewportSize)
	assert.Equal(scroll.Vertical, status.Direction)
	assert.False(status.Animating)
	assert.Equal([]string{`.section`}, status.Watching)
}

func TestScrollRequests(t *testing.T) {
	assert := require.New(t)
	rig := newTestRig(t)
	defer rig.Close()

	code, reply := rig.scroll(t, `{"target": "#s2", "duration": "100ms", "easing": "linear"}`)
	assert.Equal(http.StatusAccepted, code)
	assert.Equal(1200.0, reply[`to`])

	eventually(t, func() bool {
		return rig.status(t).Position == 1200
	})

	code, reply = rig.scroll(t, `{"target": 300, "duration": 50}`)
	assert.Equal(http.StatusAccepted, code)
	assert.Equal(1200.0, reply[`from`])
	assert.Equal(300.0, reply[`to`])

	eventually(t, func() bool {
		return rig.status(t).Position == 300
	})

	for _, body := range []string{
		`{"target": true}`,
		`{"target": ""}`,
		`{"target": 100, "easing": "wobbly"}`,
		`{"target": 100, "duration": "soon"}`,
		`{"target": "#nowhere"}`,
	} {
		code, _ = rig.scroll(t, body)
		assert.Equal(http.StatusBadRequest, code, body)
	}

	response, err := http.Post(rig.http.URL+`/api/scroll`, `application/json`, strings.NewReader(`{`))
	assert.NoError(err)
	response.Body.Close()
	assert.Equal(http.StatusBadRequest, response.StatusCode)
}

func TestEventStream(t *testing.T) {
	assert := require.New(t)
	rig := newTestRig(t)
	defer rig.Close()

	rig.server.Watch(`.section`)

	conn, _, err := websocket.DefaultDialer.Dial(`ws`+strings.TrimPrefix(rig.http.URL, `http`)+`/api/events`, nil)
	assert.NoError(err)
	defer conn.Close()

	eventually(t, func() bool {
		return rig.server.Sessions() == 1
	})

	rig.page.Post(func() {
		rig.page.Wheel(nil, scroll.Vertical, 700)
	})

	seen := make(map[string]bool)
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	for !(seen[`scroll`] && seen[`forward`] && seen[`start`] && seen[`end`] && seen[`enter s2`] && seen[`leave s0`]) {
		var message Message

		assert.NoError(conn.ReadJSON(&message))

		switch message.Event {
		case `enter`, `leave`:
			assert.Equal(`.section`, message.Selector)
			seen[message.Event+` `+message.Target] = true
		case `scroll`:
			assert.Equal(700.0, message.Position)
			assert.Equal(0.0, message.Previous)
			seen[message.Event] = true
		default:
			seen[message.Event] = true
		}
	}

	assert.False(seen[`backward`])

	rig.server.Close()

	eventually(t, func() bool {
		return rig.server.Sessions() == 0
	})

	_, _, err = conn.ReadMessage()
	assert.Error(err)
}
