package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cbus "github.com/next-trace/scg-mediator/contract/bus"
	"github.com/next-trace/scg-mediator/memory"
)

type pinged struct{ N int }

func TestMemory_New_ExportsToReturnedExporter(t *testing.T) {
	m, ex := memory.New(nil)

	m.SubscribeEventOf(pinged{}, cbus.EventHandlerFunc[cbus.Event](func(ctx context.Context, e cbus.Event) error {
		return nil
	}))
	require.NoError(t, m.PublishEvent(t.Context(), pinged{N: 1}))
	require.NoError(t, m.ExportPublishedEvents(t.Context(), cbus.ExportOptions{}))

	recs := ex.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, pinged{N: 1}, recs[0].Event)
}
