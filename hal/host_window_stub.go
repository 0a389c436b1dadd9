//go:build !cgo

package hal

import (
	"errors"

	"marcher/scene"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Title   string
	Width   int
	Height  int
	Soft    bool
	Params  scene.Params
	Shader  Shader
	Workers int
}

func RunWindow(_ func(h HAL) func() error, _ WindowConfig) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
