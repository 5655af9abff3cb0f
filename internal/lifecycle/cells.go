package lifecycle

import (
	"context"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/companion/internal/cell"
	"git.home.luguber.info/inful/companion/internal/kvstore"
	"git.home.luguber.info/inful/companion/internal/pet"
)

// Keys names the store keys of the persisted values.
type Keys struct {
	Cans      string
	State     string
	Timestamp string
}

// DefaultKeys returns the standard key names.
func DefaultKeys() Keys {
	return Keys{Cans: "can", State: "petData", Timestamp: "petLastTimestamp"}
}

// Cells are the persistent values the engine works on.
type Cells struct {
	State     *cell.Cell[pet.Snapshot]
	Timestamp *cell.Cell[int64]
	Cans      *cell.Cell[int]
}

// NewCells creates the three cells on store. The timestamp defaults to now so
// a first run applies no catch-up decay.
func NewCells(store kvstore.Store, keys Keys, tuning pet.Tuning, clock clockwork.Clock, opts ...cell.Option) Cells {
	return Cells{
		State:     cell.New[pet.Snapshot](store, keys.State, pet.SnapshotCodec{}, pet.Snapshot{State: tuning.Initial()}, opts...),
		Timestamp: cell.New[int64](store, keys.Timestamp, pet.TimestampCodec{}, clock.Now().UnixMilli(), opts...),
		Cans:      cell.New[int](store, keys.Cans, pet.CansCodec{}, 0, opts...),
	}
}

func (c Cells) open(ctx context.Context) error {
	c.State.Open(ctx)
	c.Timestamp.Open(ctx)
	c.Cans.Open(ctx)
	for _, ready := range []func(context.Context) error{c.State.AwaitReady, c.Timestamp.AwaitReady, c.Cans.AwaitReady} {
		if err := ready(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Flush waits for all queued writes.
func (c Cells) Flush(ctx context.Context) error {
	for _, flush := range []func(context.Context) error{c.State.Flush, c.Timestamp.Flush, c.Cans.Flush} {
		if err := flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close drains and stops the cells' writers.
func (c Cells) Close(ctx context.Context) error {
	for _, closeFn := range []func(context.Context) error{c.State.Close, c.Timestamp.Close, c.Cans.Close} {
		if err := closeFn(ctx); err != nil {
			return err
		}
	}
	return nil
}
