package scroll

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New(`scroller is closed`)
var ErrNotScrollable = errors.New(`element is not a scroll container`)
var ErrNoTarget = errors.New(`no matching scroll target`)

func IsClosedErr(err error) bool {
	return errors.Is(err, ErrClosed)
}

func IsNotScrollableErr(err error) bool {
	return errors.Is(err, ErrNotScrollable)
}

func IsNoTargetErr(err error) bool {
	return errors.Is(err, ErrNoTarget)
}

// A ContractViolation is returned when a plugin cannot be registered with a Scroller.
type ContractViolation struct {
	Plugin Plugin
	Reason string
}

func (self *ContractViolation) Error() string {
	if self.Plugin != nil {
		return fmt.Sprintf("plugin %T: %s", self.Plugin, self.Reason)
	} else {
		return fmt.Sprintf("plugin: %s", self.Reason)
	}
}

func IsContractViolation(err error) bool {
	var violation *ContractViolation
	return errors.As(err, &violation)
}
