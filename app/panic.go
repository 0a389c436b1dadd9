package app

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"marcher/internal/font5x7"
	"marcher/kernel"
)

var (
	panicBG = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	panicFG = color.RGBA{A: 255}
)

// onPanic runs once, from inside the kernel, when a task panics. It logs the
// stack and replaces the overlay with an opaque panic screen.
func (a *App) onPanic(info kernel.PanicInfo) {
	a.crash = &info

	a.log.Error("kernel panic", "task", info.Task, "tick", info.Tick, "panic", fmt.Sprint(info.Value))
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		a.log.Error(line)
	}

	o := a.h.Display().Overlay()
	w, h := o.Size()
	if w <= 0 || h <= 0 {
		return
	}
	o.Clear()
	o.Fill(image.Rect(0, 0, int(w), int(h)), panicBG)

	lines := []string{
		"Marcher Panic:",
		fmt.Sprintf("task: %d  tick: %d", info.Task, info.Tick),
		fmt.Sprintf("panic: %v", info.Value),
	}
	if len(info.Stack) > 0 {
		lines = append(lines, "stack:")
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line == "" {
				continue
			}
			lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
		}
	} else {
		lines = append(lines, "stack: unavailable")
	}

	cols := int(w) / font5x7.Advance
	if cols <= 0 {
		cols = 1
	}
	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+font5x7.LineHeight > h {
				break
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(o, font5x7.Font, 0, y+font5x7.Ascent, chunk, panicFG)
			y += font5x7.LineHeight
			line = strings.TrimLeft(rest, " ")
		}
		if y+font5x7.LineHeight > h {
			break
		}
	}

	o.SetVisible(true)
	_ = o.Display()
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	var i, count int
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
