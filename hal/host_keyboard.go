//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostKeyboard struct {
	in *hostInput
}

func newHostKeyboard(in *hostInput) *hostKeyboard {
	return &hostKeyboard{in: in}
}

var heldKeys = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyW, KeyW},
	{ebiten.KeyS, KeyS},
	{ebiten.KeyEscape, KeyEscape},
}

func (k *hostKeyboard) poll() {
	key := func(ke KeyEvent) {
		k.in.emit(Event{Kind: EventKey, Key: ke})
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		// W and S arrive as held keys below.
		if r == 'w' || r == 'W' || r == 's' || r == 'S' {
			continue
		}
		key(KeyEvent{Press: true, Rune: r})
	}

	for _, hk := range heldKeys {
		if inpututil.IsKeyJustPressed(hk.key) {
			key(KeyEvent{Code: hk.code, Press: true})
		}
		if inpututil.IsKeyJustReleased(hk.key) {
			key(KeyEvent{Code: hk.code, Press: false})
		}
	}

	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		k.in.emit(Event{Kind: EventScroll, ScrollX: dx, ScrollY: dy})
	}
}
