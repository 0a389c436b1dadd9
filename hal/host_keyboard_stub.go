//go:build !cgo

package hal

type hostKeyboard struct{}

func newHostKeyboard(*hostInput) *hostKeyboard { return &hostKeyboard{} }

func (k *hostKeyboard) poll() {
	// No keyboard without the window backend.
}
