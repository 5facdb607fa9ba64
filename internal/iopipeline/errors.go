package iopipeline

import (
	"errors"
)

func errProcessActive() error {
	return errors.New("a Process call is already active")
}
