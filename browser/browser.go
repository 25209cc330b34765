// Package browser drives a Chrome (or Chromium) instance over the DevTools protocol
// and exposes its pages as scroll platforms.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/ghetzel/argonaut"
	"github.com/ghetzel/go-stockutil/httputil"
	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/pathutil"
	"github.com/mafredri/cdp/devtool"
	"github.com/phayes/freeport"
)

var rpcGlobalTimeout = (60 * time.Second)
var DefaultStartWait = time.Duration(500) * time.Millisecond
var ProcessExitMaxWait = 10 * time.Second
var ProcessExitCheckInterval = 125 * time.Millisecond

// Executables tried, in order, when SCROLLFRIEND_BROWSER is not set.
var ChromeExecutables = map[string][]string{
	`linux`: {
		`chromium`,
		`chromium-browser`,
		`google-chrome`,
		`google-chrome-stable`,
	},
	`darwin`: {
		`/Applications/Chromium.app/Contents/MacOS/Chromium`,
		`/Applications/Google Chrome.app/Contents/MacOS/Google Chrome`,
	},
}

type Browser struct {
	Command                     argonaut.CommandName `argonaut:",joiner=[=]"`
	DisableGPU                  bool                 `argonaut:"disable-gpu,long"`
	HideScrollbars              bool                 `argonaut:"hide-scrollbars,long"`
	Headless                    bool                 `argonaut:"headless,long"`
	RemoteDebuggingPort         int                  `argonaut:"remote-debugging-port,long"`
	UserDataDirectory           string               `argonaut:"user-data-dir,long"`
	WindowSize                  string               `argonaut:"window-size,long"`
	DisableSessionCrashedBubble bool                 `argonaut:"disable-session-crashed-bubble,long"`
	DisableInfobars             bool                 `argonaut:"disable-infobars,long"`
	DisableSharedMemory         bool                 `argonaut:"disable-dev-shm-usage,long"`
	NoFirstRun                  bool                 `argonaut:"no-first-run,long"`
	NoSandbox                   bool                 `argonaut:"no-sandbox,long"`
	UserAgent                   string               `argonaut:"user-agent,long"`
	URL                         string               `argonaut:",positional"`
	StartWait                   time.Duration        `argonaut:"-"`
	cmd                         *exec.Cmd
	exitchan                    chan error
	devtools                    *devtool.DevTools
	isTempUserDataDir           bool
	activeTabId                 string
	tabs                        map[string]*Tab
	tabLock                     sync.Mutex
}

// Find a Chrome or Chromium binary on this system, or return an empty string.
func LocateChromeExecutable() string {
	candidates := []string{
		os.Getenv(`SCROLLFRIEND_BROWSER`),
	}

	if runtime.GOOS == `freebsd` {
		candidates = append(candidates, ChromeExecutables[`linux`]...)
	} else {
		candidates = append(candidates, ChromeExecutables[runtime.GOOS]...)
	}

	for _, candidate := range candidates {
		if candidate == `` {
			continue
		}

		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}

	return ``
}

func NewBrowser() *Browser {
	return &Browser{
		Command:             argonaut.CommandName(LocateChromeExecutable()),
		URL:                 `about:blank`,
		Headless:            true,
		HideScrollbars:      true,
		NoFirstRun:          true,
		RemoteDebuggingPort: 0,
		WindowSize:          `1280,800`,
		StartWait:           DefaultStartWait,
		exitchan:            make(chan error),
		tabs:                make(map[string]*Tab),
	}
}

// Connect to a browser that is already running with remote debugging enabled at
// the given address (host:port).
func Connect(address string) (*Browser, error) {
	browser := NewBrowser()
	return browser, browser.connectRPC(address)
}

// Start the browser process with remote debugging enabled and connect to it.
func (self *Browser) Launch() error {
	if self.Command == `` {
		return fmt.Errorf("no Chrome executable found; set SCROLLFRIEND_BROWSER to its path")
	}

	if self.UserDataDirectory == `` {
		if userDataDir, err := os.MkdirTemp(``, `scrollfriend-`); err == nil {
			self.UserDataDirectory = userDataDir
			self.isTempUserDataDir = true
		} else {
			return err
		}
	}

	if self.RemoteDebuggingPort <= 0 {
		if port, err := freeport.GetFreePort(); err == nil {
			self.RemoteDebuggingPort = port
		} else {
			return err
		}
	}

	if err := self.preparePaths(); err != nil {
		return err
	}

	if cmd, err := argonaut.Command(self); err == nil {
		if args := os.Getenv(`SCROLLFRIEND_BROWSER_ARGS`); args != `` {
			cmd.Args = append(cmd.Args, strings.Split(args, ` `)...)
		}

		self.cmd = cmd
		self.cmd.Stdout = httputil.NewWritableLogger(httputil.Info, `[PROC] `)
		self.cmd.Stderr = httputil.NewWritableLogger(httputil.Warning, `[PROC] `)

		// launch the browser
		go func() {
			log.Debugf("[browser] Executing: %v", strings.Join(self.cmd.Args, ` `))
			self.exitchan <- self.cmd.Run()
		}()

		select {
		case err := <-self.exitchan:
			if eerr, ok := err.(*exec.ExitError); ok {
				if status, ok := eerr.Sys().(syscall.WaitStatus); ok {
					err = fmt.Errorf("Process exited prematurely with status %d", status.ExitStatus())
				}
			} else if err == nil {
				err = fmt.Errorf("Process exited prematurely without error")
			}

			self.cleanupUserDataDirectory()
			return err

		case <-time.After(self.StartWait):
			log.Debugf("[browser] Process stayed running for %v", self.StartWait)

			if err := self.connectRPC(fmt.Sprintf("127.0.0.1:%d", self.RemoteDebuggingPort)); err == nil {
				return nil
			} else {
				defer self.Stop()
				return err
			}
		}
	} else {
		return err
	}
}

func (self *Browser) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rpcGlobalTimeout)
}

// Return the active tab.
func (self *Browser) Tab() (*Tab, error) {
	self.tabLock.Lock()
	defer self.tabLock.Unlock()

	if self.activeTabId != `` {
		if tab, ok := self.tabs[self.activeTabId]; ok {
			return tab, nil
		}
	}

	return nil, ErrNoActiveTab
}

// Disconnect from every tab and, if this browser was launched (rather than
// connected to), kill the process and remove any temporary profile.
func (self *Browser) Stop() error {
	self.tabLock.Lock()
	defer self.tabLock.Unlock()

	log.Debug("[browser] Stopping...")

	for id, tab := range self.tabs {
		tab.Disconnect()
		delete(self.tabs, id)
	}

	if self.cmd == nil {
		return nil
	}

	defer self.cleanupUserDataDirectory()

	if process := self.cmd.Process; process == nil {
		return fmt.Errorf("Process not running")
	} else {
		log.Debugf("[browser] Killing browser process %d", process.Pid)

		if err := process.Kill(); err == nil {
			started := time.Now()
			deadline := started.Add(ProcessExitMaxWait)

			for t := started; t.Before(deadline); t = time.Now() {
				if proc, err := ps.FindProcess(process.Pid); err == nil && proc == nil {
					log.Debugf("[browser] PID %d is gone", process.Pid)
					return nil
				}

				log.Debugf("[browser] Polling for PID %d to disappear", process.Pid)
				time.Sleep(ProcessExitCheckInterval)
			}

			return fmt.Errorf("Could not confirm process %d exited", process.Pid)
		} else {
			return err
		}
	}
}

func (self *Browser) cleanupUserDataDirectory() error {
	if self.isTempUserDataDir && pathutil.DirExists(self.UserDataDirectory) {
		log.Debugf("[browser] Cleaning up temporary profile %s", self.UserDataDirectory)
		return os.RemoveAll(self.UserDataDirectory)
	}

	return nil
}

func (self *Browser) preparePaths() error {
	if self.UserDataDirectory != `` {
		if dir, err := pathutil.ExpandUser(self.UserDataDirectory); err == nil {
			self.UserDataDirectory = dir
		} else {
			return err
		}
	}

	return nil
}
