package menu

import (
	"github.com/jypelle/heatbox/internal/srv/encoder"
	"github.com/jypelle/heatbox/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// EditRange bounds the encoder on both sides while a value is being edited.
const EditRange = 10000

// Encoder is the part of the encoder input the controller drives.
type Encoder interface {
	SetBoundaries(min, max int64, mode encoder.Mode)
	SetPosition(v int64)
	Position() int64
	TakePress() bool
	Delta() int64
}

type Mode int

const (
	Browsing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "browsing"
}

// Baseline is captured when edit mode is entered.
type Baseline struct {
	Position int64
	Value    float64
}

type Controller struct {
	items      []Item
	enc        Encoder
	browseMode encoder.Mode

	selected int
	mode     Mode
	editing  int
	baseline Baseline
}

func NewController(items []Item, enc Encoder, browseMode encoder.Mode) *Controller {
	c := &Controller{
		items:      items,
		enc:        enc,
		browseMode: browseMode,
		editing:    -1,
	}
	c.browse(0)
	return c
}

func (c *Controller) Items() []Item {
	return c.items
}

func (c *Controller) Selected() int {
	return c.selected
}

func (c *Controller) Mode() Mode {
	return c.mode
}

// EditingLine returns the line being edited, if any.
func (c *Controller) EditingLine() (int, bool) {
	if c.mode != Editing {
		return -1, false
	}
	return c.editing, true
}

func (c *Controller) Baseline() (Baseline, bool) {
	if c.mode != Editing {
		return Baseline{}, false
	}
	return c.baseline, true
}

// browse returns to Browsing with the encoder mapped on the item indexes.
func (c *Controller) browse(line int) {
	c.mode = Browsing
	c.editing = -1
	c.baseline = Baseline{}
	c.selected = line
	c.enc.SetBoundaries(0, int64(len(c.items)-1), c.browseMode)
	c.enc.SetPosition(int64(line))
}

// Step consumes one tick of encoder input. The press is handled first, so a boundary
// change it causes is in place before rotation is read. It reports whether anything
// visible changed.
func (c *Controller) Step(s *model.AppState) bool {
	changed := false
	if c.enc.TakePress() {
		changed = c.Press(s)
	}
	if d := c.enc.Delta(); d != 0 {
		changed = c.Rotate(s, d) || changed
	}
	return changed
}

func (c *Controller) Press(s *model.AppState) bool {
	if c.mode == Editing {
		logrus.Debugf("Leave edit mode on line %d", c.editing)
		c.browse(c.selected)
		return true
	}

	item := c.items[c.selected]
	switch item.Kind {
	case Toggle:
		item.Flip(s)
		logrus.Infof("%s %s", item.Label, item.Text(s))
		c.enc.SetPosition(int64(c.selected))
		return true
	case Numeric:
		c.mode = Editing
		c.editing = c.selected
		c.enc.SetBoundaries(-EditRange, EditRange, encoder.Clamping)
		c.enc.SetPosition(0)
		c.baseline = Baseline{Position: c.enc.Position(), Value: item.Field.Get(s)}
		logrus.Debugf("Enter edit mode on line %d (value %v)", c.editing, c.baseline.Value)
		return true
	default:
		return false
	}
}

func (c *Controller) Rotate(s *model.AppState, delta int64) bool {
	if delta == 0 {
		return false
	}

	if c.mode == Editing {
		field := c.items[c.editing].Field
		old := field.Get(s)
		field.Set(s, field.Clamp(old+float64(delta)*field.Step))
		c.enc.SetPosition(0)
		return field.Get(s) != old
	}

	line := int(c.enc.Position())
	if line < 0 {
		line = 0
	}
	if line > len(c.items)-1 {
		line = len(c.items) - 1
	}
	if line == c.selected {
		return false
	}
	c.selected = line
	return true
}
