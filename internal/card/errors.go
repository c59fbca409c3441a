package card

import "errors"

var ErrInvalidInput = errors.New("invalid input")
