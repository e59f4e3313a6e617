package dashboard

const gridColumns = 12

var breakpointColumns = map[Breakpoint]int{
	BreakpointLG:  gridColumns,
	BreakpointMD:  10,
	BreakpointSM:  6,
	BreakpointXS:  4,
	BreakpointXXS: 2,
}

var breakpointWidthCaps = map[Breakpoint]int{
	BreakpointMD:  5,
	BreakpointSM:  3,
	BreakpointXS:  2,
	BreakpointXXS: 2,
}

// BreakpointColumns returns the grid column count of a breakpoint.
func BreakpointColumns(bp Breakpoint) int {
	if cols, ok := breakpointColumns[bp]; ok {
		return cols
	}
	return gridColumns
}

// DefaultLayoutsFromWidgets packs descriptors left to right into rows of 12 columns and
// derives the narrower breakpoints from the lg placement.
func DefaultLayoutsFromWidgets(widgets []WidgetDescriptor) Layouts {
	lg := make([]LayoutEntry, 0, len(widgets))
	currentX, currentY, rowMaxHeight := 0, 0, 0
	for _, w := range widgets {
		if currentX+w.W > gridColumns {
			currentY += rowMaxHeight
			currentX = 0
			rowMaxHeight = 0
		}
		entry := w.layoutEntry()
		entry.X = currentX
		entry.Y = currentY
		lg = append(lg, entry)
		currentX += w.W
		if w.H > rowMaxHeight {
			rowMaxHeight = w.H
		}
	}
	layouts := Layouts{BreakpointLG: lg}
	for _, bp := range Breakpoints[1:] {
		layouts[bp] = deriveBreakpoint(lg, bp)
	}
	return layouts
}

func deriveBreakpoint(lg []LayoutEntry, bp Breakpoint) []LayoutEntry {
	cols := BreakpointColumns(bp)
	maxW := breakpointWidthCaps[bp]
	out := make([]LayoutEntry, len(lg))
	for i, entry := range lg {
		if maxW > 0 && entry.W > maxW {
			entry.W = maxW
		}
		if entry.X+entry.W > cols {
			entry.X = 0
		}
		out[i] = entry
	}
	return out
}

// FindLayoutEntry returns the entry for id within one breakpoint.
func FindLayoutEntry(layouts Layouts, bp Breakpoint, id string) (LayoutEntry, bool) {
	for _, entry := range layouts[bp] {
		if entry.I == id {
			return entry, true
		}
	}
	return LayoutEntry{}, false
}

// CloneLayouts deep copies a layout map. A nil map clones to an empty one.
func CloneLayouts(in Layouts) Layouts {
	out := make(Layouts, len(in))
	for bp, entries := range in {
		if entries == nil {
			out[bp] = nil
			continue
		}
		out[bp] = append([]LayoutEntry(nil), entries...)
	}
	return out
}

// SanitizeLayouts returns a copy of in that the persisted document can hold: unknown
// breakpoints and entries without an id are dropped, positions floor at 0 and sizes at 1.
func SanitizeLayouts(in Layouts) Layouts {
	out := make(Layouts, len(in))
	for bp, entries := range in {
		if _, ok := breakpointColumns[bp]; !ok {
			continue
		}
		if entries == nil {
			out[bp] = nil
			continue
		}
		kept := make([]LayoutEntry, 0, len(entries))
		for _, e := range entries {
			if e.I == "" {
				continue
			}
			e.X, e.Y = max(e.X, 0), max(e.Y, 0)
			e.W, e.H = max(e.W, 1), max(e.H, 1)
			e.MinW, e.MinH = max(e.MinW, 0), max(e.MinH, 0)
			e.MaxW, e.MaxH = max(e.MaxW, 0), max(e.MaxH, 0)
			kept = append(kept, e)
		}
		out[bp] = kept
	}
	return out
}

// ValidLockedDimensions reports whether dims pins a drawable size.
func ValidLockedDimensions(dims LockedDimensions) bool {
	return dims.W >= 1 && dims.H >= 1
}

func sanitizeLocked(in map[string]LockedDimensions) map[string]LockedDimensions {
	out := make(map[string]LockedDimensions, len(in))
	for id, dims := range in {
		if id == "" || !ValidLockedDimensions(dims) {
			continue
		}
		out[id] = dims
	}
	return out
}

func sanitizeSizes(in map[string]Size) map[string]Size {
	if in == nil {
		return nil
	}
	out := make(map[string]Size, len(in))
	for id, size := range in {
		if size.W < 1 || size.H < 1 {
			continue
		}
		out[id] = size
	}
	return out
}

func cloneLocked(in map[string]LockedDimensions) map[string]LockedDimensions {
	out := make(map[string]LockedDimensions, len(in))
	for id, dims := range in {
		out[id] = dims
	}
	return out
}

func cloneSizes(in map[string]Size) map[string]Size {
	if in == nil {
		return nil
	}
	out := make(map[string]Size, len(in))
	for id, size := range in {
		out[id] = size
	}
	return out
}

// Clone returns a deep copy of the preset.
func (p Preset) Clone() Preset {
	return Preset{
		ID:            p.ID,
		Name:          p.Name,
		Widgets:       append([]string{}, p.Widgets...),
		Layouts:       CloneLayouts(p.Layouts),
		LockedWidgets: cloneLocked(p.LockedWidgets),
		ExpandedSizes: cloneSizes(p.ExpandedSizes),
	}
}
