package virtual

import (
	"errors"
)

var ErrNoSuchElement = errors.New(`no such element`)

func IsNoSuchElementErr(err error) bool {
	return errors.Is(err, ErrNoSuchElement)
}
