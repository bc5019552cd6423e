// Package render formats the menu lines and pushes them to a display surface.
package render

import (
	"fmt"

	"github.com/jypelle/heatbox/internal/srv/menu"
	"github.com/jypelle/heatbox/internal/srv/model"
)

// Surface is the display collaborator.
type Surface interface {
	BeginFrame()
	DrawHighlightedLine(index int, text string)
	DrawLine(index int, text string)
	EndFrame() error
}

// NoEditing is passed as editing line when nothing is being edited.
const NoEditing = -1

// Lines formats one text line per item. The line being edited gets a '>' marker.
func Lines(items []menu.Item, s *model.AppState, editing int) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		prefix := ' '
		if i == editing {
			prefix = '>'
		}
		lines[i] = fmt.Sprintf("%c%s %s", prefix, item.Label, item.Text(s))
	}
	return lines
}

type Renderer struct {
	surface Surface

	drawn        bool
	lastLines    []string
	lastSelected int
}

func NewRenderer(surface Surface) *Renderer {
	return &Renderer{surface: surface}
}

// Render draws the menu with the selected line highlighted. A frame identical to the
// previous one is not pushed again; the return value tells whether a frame was pushed.
func (r *Renderer) Render(items []menu.Item, s *model.AppState, selected int, editing int) (bool, error) {
	lines := Lines(items, s, editing)
	if r.drawn && selected == r.lastSelected && equal(lines, r.lastLines) {
		return false, nil
	}

	r.surface.BeginFrame()
	for i, text := range lines {
		if i == selected {
			r.surface.DrawHighlightedLine(i, text)
		} else {
			r.surface.DrawLine(i, text)
		}
	}
	if err := r.surface.EndFrame(); err != nil {
		return false, fmt.Errorf("push frame: %w", err)
	}

	r.drawn = true
	r.lastLines = lines
	r.lastSelected = selected
	return true, nil
}

// Invalidate forces the next Render to push a frame.
func (r *Renderer) Invalidate() {
	r.drawn = false
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
