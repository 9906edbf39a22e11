package tui

// Menu geometry in terminal cells. The values are constants of the layout,
// not configuration.
const (
	MenuWidth = 18
	MenuGap   = 1
)

// Rect is a rendered message bubble's bounding box.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Side says which side of the bubble the menu hangs off.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Anchor is the resolved menu position.
type Anchor struct {
	Top  int
	Left int
	Side Side
}

// AnchorFor places the context menu next to a message bubble: user bubbles
// are right-aligned so the menu goes on their left, assistant bubbles get
// it on their right. Pure function of the box and authorship.
func AnchorFor(box Rect, fromUser bool) Anchor {
	if fromUser {
		return Anchor{
			Top:  box.Y,
			Left: box.X - MenuWidth - MenuGap,
			Side: SideLeft,
		}
	}
	return Anchor{
		Top:  box.Y,
		Left: box.X + box.Width + MenuGap,
		Side: SideRight,
	}
}
