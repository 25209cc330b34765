package browser

import (
	"fmt"
	"time"

	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/sliceutil"
	"github.com/mafredri/cdp/devtool"
)

var rpcConnectRetryInterval = (125 * time.Millisecond)
var rpcConnectMaxRetries = 40

func (self *Browser) connectRPC(address string) error {
	self.devtools = devtool.New(fmt.Sprintf("http://%v", address))
	connected := false

	for i := 0; i < rpcConnectMaxRetries; i++ {
		ctx, cancel := self.ctx()
		version, err := self.devtools.Version(ctx)
		cancel()

		if err == nil {
			connected = true
			log.Debugf("[browser] Connected to %v; protocol %v", version.Browser, version.Protocol)
			break
		} else {
			time.Sleep(rpcConnectRetryInterval)
		}
	}

	if connected {
		return self.syncState()
	} else {
		return fmt.Errorf("Failed to connect to RPC interface after %d attempts", rpcConnectMaxRetries)
	}
}

// Register a Tab for every page target the browser reports, and drop tabs for
// targets that have gone away.
func (self *Browser) syncState() error {
	if self.devtools == nil {
		return fmt.Errorf("DevTools connection unavailable")
	}

	ctx, cancel := self.ctx()
	defer cancel()

	targets, err := self.devtools.List(ctx)

	if err != nil {
		return fmt.Errorf("DevTools error: %v", err)
	}

	var ids []string

	for _, target := range targets {
		if target.Type != devtool.Page {
			continue
		}

		ids = append(ids, target.ID)

		self.tabLock.Lock()
		_, known := self.tabs[target.ID]
		self.tabLock.Unlock()

		if known {
			continue
		}

		if tab, err := newTabFromTarget(self, target); err == nil {
			self.tabLock.Lock()
			self.tabs[target.ID] = tab

			if self.activeTabId == `` {
				log.Debugf("[browser] Setting tab %v as active", tab.ID())
				self.activeTabId = tab.ID()
			}

			self.tabLock.Unlock()
		} else {
			log.Warningf("[browser] failed to register tab %v: %v", target.ID, err)
		}
	}

	self.tabLock.Lock()
	defer self.tabLock.Unlock()

	// cull tabs on our end that no longer exist in Chrome
	for id, tab := range self.tabs {
		if !sliceutil.ContainsString(ids, id) {
			if err := tab.Disconnect(); err != nil {
				log.Warningf("[browser] failed to disconnect tab %v: %v", tab.ID(), err)
			}

			delete(self.tabs, id)

			if self.activeTabId == id {
				self.activeTabId = ``
			}
		}
	}

	if self.activeTabId == `` {
		for id := range self.tabs {
			self.activeTabId = id
			return nil
		}

		return ErrNoActiveTab
	}

	return nil
}
