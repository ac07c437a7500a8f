package extract

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/geofusion/internal/model"
)

// --- Wikidata Mock ---

type mockKB struct {
	mock.Mock
}

func (m *mockKB) Aliases(ctx context.Context, id string) (model.Aliases, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Aliases), args.Error(1)
}

// delayKB answers after a per-id delay so lookups finish out of order.
type delayKB struct {
	delays   map[string]time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (d *delayKB) Aliases(ctx context.Context, id string) (model.Aliases, error) {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(d.delays[id]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return aliasesFor(id), nil
}

func aliasesFor(id string) model.Aliases {
	label := "label-" + id
	return model.Aliases{"en": {Label: &label, Aliases: []string{}}}
}
