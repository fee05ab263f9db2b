package basemap

// Pane names. The map pane holds two hierarchies: the rotate pane, whose
// children turn with the bearing, and the upright panes, whose content
// follows rotated positions but never turns.
const (
	MapPane     = "mapPane"
	RotatePane  = "rotatePane"
	TilePane    = "tilePane"
	OverlayPane = "overlayPane"
	ShadowPane  = "shadowPane"
	MarkerPane  = "markerPane"
	TooltipPane = "tooltipPane"
	PopupPane   = "popupPane"
)

var paneParents = map[string]string{
	RotatePane:  MapPane,
	TilePane:    RotatePane,
	OverlayPane: RotatePane,
	ShadowPane:  MapPane,
	MarkerPane:  MapPane,
	TooltipPane: MapPane,
	PopupPane:   MapPane,
}

// PaneParent returns the parent of a pane, or "" for the map pane and unknown names.
func PaneParent(name string) string {
	return paneParents[name]
}

// IsRotated reports whether content in the pane turns with the bearing.
func IsRotated(name string) bool {
	for p := name; p != ""; p = paneParents[p] {
		if p == RotatePane {
			return true
		}
	}
	return false
}
