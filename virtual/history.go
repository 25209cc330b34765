package virtual

import (
	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
)

type HistoryEntry struct {
	State    map[string]interface{} `json:"state,omitempty"`
	URL      string                 `json:"url"`
	Replaced bool                   `json:"replaced,omitempty"`
}

// History is a page's session history.  Moving back or forward dispatches a
// popstate event on the window carrying the state of the entry moved to.
type History struct {
	page    *Page
	path    string
	entries []HistoryEntry
	index   int
}

func newHistory(page *Page, path string) *History {
	return &History{
		page: page,
		path: path,
		entries: []HistoryEntry{
			{URL: path},
		},
	}
}

func (self *History) Path() string {
	return self.path
}

func (self *History) Push(state map[string]interface{}, url string) {
	self.entries = append(self.entries[:self.index+1], HistoryEntry{
		State: state,
		URL:   url,
	})

	self.index = len(self.entries) - 1
}

func (self *History) Replace(state map[string]interface{}, url string) {
	self.entries[self.index] = HistoryEntry{
		State:    state,
		URL:      url,
		Replaced: true,
	}
}

func (self *History) Current() HistoryEntry {
	return self.entries[self.index]
}

func (self *History) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), self.entries...)
}

func (self *History) Len() int {
	return len(self.entries)
}

func (self *History) Back() bool {
	return self.Go(-1)
}

func (self *History) Forward() bool {
	return self.Go(1)
}

// Move delta entries through the history, returning false if that would move past
// either end.
func (self *History) Go(delta int) bool {
	index := self.index + delta

	if delta == 0 || index < 0 || index >= len(self.entries) {
		return false
	}

	self.index = index

	self.page.Dispatch(nil, events.New(scroll.EventPopState, map[string]interface{}{
		`state`: self.entries[index].State,
		`url`:   self.entries[index].URL,
	}))

	return true
}
