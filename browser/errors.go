package browser

import (
	"errors"
	"fmt"
)

var ErrNoSuchElement = errors.New(`no such element`)
var ErrPageClosed = errors.New(`page is closed`)
var ErrNoActiveTab = errors.New(`no active tab`)

func IsNoSuchElementErr(err error) bool {
	return errors.Is(err, ErrNoSuchElement)
}

func IsPageClosedErr(err error) bool {
	return errors.Is(err, ErrPageClosed)
}

type JavascriptError struct {
	Text       string
	LineNumber int
}

func (self *JavascriptError) Error() string {
	return fmt.Sprintf("javascript exception at line %d: %v", self.LineNumber, self.Text)
}
