package session

import (
	"sync"

	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
)

// smallOffice is a 10x10 floor with two desks
func smallOffice() *layout.Document {
	tiles := make([]layout.TileKind, 100)
	for i := range tiles {
		tiles[i] = layout.TileFloor
	}
	return &layout.Document{
		Version: layout.CurrentVersion,
		Cols:    10,
		Rows:    10,
		Tiles:   tiles,
		Furniture: []layout.Placement{
			{ID: "desk-1", TypeID: "desk", X: 4, Y: 4},
			{ID: "desk-2", TypeID: "desk", X: 4, Y: 7},
		},
	}
}

// recordingPublisher collects published ticks per office
type recordingPublisher struct {
	mu    sync.Mutex
	ticks map[string][]uint64
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{ticks: make(map[string][]uint64)}
}

func (p *recordingPublisher) Publish(officeID string, snap *engine.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks[officeID] = append(p.ticks[officeID], snap.Tick)
}

func (p *recordingPublisher) count(officeID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks[officeID])
}
