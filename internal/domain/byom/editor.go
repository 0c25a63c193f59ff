package byom

import (
	"github.com/merch/byom/internal/domain/shared"
)

// ErrNoActiveDrag is returned when a drag update arrives without BeginDrag
var ErrNoActiveDrag = shared.NewDomainError("NO_ACTIVE_DRAG", "No element is being dragged")

// DragState is the element currently being dragged
type DragState struct {
	Zone      PlacementZone `json:"zone"`
	Kind      ElementKind   `json:"kind"`
	ElementID string        `json:"element_id"`
	// Offset is pointer percent minus element position at BeginDrag
	Offset Point  `json:"offset"`
	Canvas Canvas `json:"canvas"`
}

// CommitListener receives every committed configuration
type CommitListener func(cfg Configuration)

// ChangeListener receives the live configuration after a change that is
// kept out of the undo history
type ChangeListener func(cfg Configuration)

// Editor owns the live configuration of one customization session, its
// undo history and the drag in progress.
type Editor struct {
	live     Configuration
	history  *History
	drag     *DragState
	listener CommitListener
	changed  ChangeListener
}

// NewEditor starts an editor whose history holds the initial configuration
func NewEditor(initial Configuration) *Editor {
	return &Editor{
		live:    initial.Clone(),
		history: NewHistory(initial),
	}
}

// OnCommit registers the listener notified after commits and undos
func (e *Editor) OnCommit(l CommitListener) {
	e.listener = l
}

// OnChange registers the listener notified after scale changes
func (e *Editor) OnChange(l ChangeListener) {
	e.changed = l
}

// Configuration returns a copy of the live configuration
func (e *Editor) Configuration() Configuration {
	return e.live.Clone()
}

// History exposes the undo history
func (e *Editor) History() *History {
	return e.history
}

// Drag returns the active drag, or nil
func (e *Editor) Drag() *DragState {
	if e.drag == nil {
		return nil
	}
	d := *e.drag
	return &d
}

func (e *Editor) commit() {
	e.history.Commit(e.live)
	if e.listener != nil {
		e.listener(e.live.Clone())
	}
}

// AddText adds a text to a zone and commits
func (e *Editor) AddText(zone PlacementZone, in TextInput) (CustomText, error) {
	e.EndDrag()
	text, err := AddText(&e.live, zone, in)
	if err != nil {
		return CustomText{}, err
	}
	e.commit()
	return text, nil
}

// AddAsset adds an asset to a zone and commits
func (e *Editor) AddAsset(zone PlacementZone, assetID string) (CustomAsset, error) {
	e.EndDrag()
	asset, err := AddAsset(&e.live, zone, assetID)
	if err != nil {
		return CustomAsset{}, err
	}
	e.commit()
	return asset, nil
}

// RemoveText removes a text from a zone and commits
func (e *Editor) RemoveText(zone PlacementZone, id string) error {
	e.EndDrag()
	if err := RemoveText(&e.live, zone, id); err != nil {
		return err
	}
	e.commit()
	return nil
}

// RemoveAsset removes an asset from a zone and commits
func (e *Editor) RemoveAsset(zone PlacementZone, id string) error {
	e.EndDrag()
	if err := RemoveAsset(&e.live, zone, id); err != nil {
		return err
	}
	e.commit()
	return nil
}

// ScaleAsset changes an asset's scale without a history entry. The change
// listener still sees the new configuration.
func (e *Editor) ScaleAsset(zone PlacementZone, id string, delta float64) (float64, error) {
	scale, err := ScaleAsset(&e.live, zone, id, delta)
	if err != nil {
		return 0, err
	}
	if e.changed != nil {
		e.changed(e.live.Clone())
	}
	return scale, nil
}

// BeginDrag starts dragging an element. An active drag is ended first.
func (e *Editor) BeginDrag(zone PlacementZone, kind ElementKind, id string, pointer Point, canvas Canvas) error {
	if err := canvas.Validate(); err != nil {
		return err
	}
	pos, err := ElementPosition(&e.live, zone, kind, id)
	if err != nil {
		return err
	}
	e.EndDrag()
	pct := canvas.Percent(pointer)
	e.drag = &DragState{
		Zone:      zone,
		Kind:      kind,
		ElementID: id,
		Offset:    Point{X: pct.X - pos.X, Y: pct.Y - pos.Y},
		Canvas:    canvas,
	}
	return nil
}

// UpdateDrag moves the dragged element under the pointer, keeping the grab offset
func (e *Editor) UpdateDrag(pointer Point) (Point, error) {
	if e.drag == nil {
		return Point{}, ErrNoActiveDrag
	}
	pct := e.drag.Canvas.Percent(pointer)
	x := clampCoordinate(pct.X - e.drag.Offset.X)
	y := clampCoordinate(pct.Y - e.drag.Offset.Y)
	if err := MoveElement(&e.live, e.drag.Zone, e.drag.Kind, e.drag.ElementID, x, y); err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// EndDrag commits the drag. It reports false when no drag was active.
func (e *Editor) EndDrag() bool {
	if e.drag == nil {
		return false
	}
	e.drag = nil
	e.commit()
	return true
}

// Undo restores the previous snapshot and cancels any active drag.
// At the first snapshot it does nothing and reports false.
func (e *Editor) Undo() bool {
	prev, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.drag = nil
	e.live = prev
	if e.listener != nil {
		e.listener(e.live.Clone())
	}
	return true
}
