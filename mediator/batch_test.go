package mediator_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-mediator/adapters/inmemory"
	cbus "github.com/next-trace/scg-mediator/contract/bus"
	berr "github.com/next-trace/scg-mediator/contract/errors"
	"github.com/next-trace/scg-mediator/mediator"
)

// newEchoing returns a mediator whose testCmd handler publishes testEvt{ID} and fails for ID "bad".
func newEchoing(t *testing.T, ex cbus.EventExporter) (*mediator.Mediator, *int) {
	t.Helper()

	m := mediator.New(ex, slog.New(slog.NewTextHandler(io.Discard, nil)))
	calls := new(int)

	mediator.SubscribeEvent[testEvt](m, cbus.EventHandlerFunc[testEvt](func(context.Context, testEvt) error {
		return nil
	}))
	require.NoError(t, mediator.SubscribeCommand[testCmd](m, cbus.CommandHandlerFunc[testCmd](func(ctx context.Context, c testCmd) error {
		*calls++

		if err := m.PublishEvent(ctx, testEvt(c)); err != nil {
			return err
		}

		if c.ID == "bad" {
			return errors.New("bad command")
		}

		return nil
	})))

	return m, calls
}

func ids(recs []cbus.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Event.(testEvt).ID
	}

	return out
}

func Test_Chain_OneSession_StopsOnFirstError(t *testing.T) {
	m, calls := newEchoing(t, nil)

	recs, err := m.Chain(t.Context(), testCmd{ID: "a"}, testCmd{ID: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(recs))
	assert.Equal(t, []uint64{1, 2}, []uint64{recs[0].Sequence, recs[1].Sequence})

	recs, err = m.Chain(t.Context(), testCmd{ID: "c"}, testCmd{ID: "bad"}, testCmd{ID: "d"})
	require.EqualError(t, err, "bad command")
	assert.Equal(t, []string{"c", "bad"}, ids(recs), "records up to the failure are kept")
	assert.Equal(t, 4, *calls, "d never runs")

	assert.Empty(t, m.PublishedEvents(t.Context()), "chain sessions never touch the ambient log")
}

func Test_Batch_IsolatesEachCommand(t *testing.T) {
	m, _ := newEchoing(t, nil)

	var (
		prog   []int
		failed []int
	)

	cmds := []cbus.Command{testCmd{ID: "a"}, testCmd{ID: "bad"}, testCmd{ID: "b"}}
	outs, err := m.Batch(t.Context(), cmds,
		mediator.WithBatchProgress(func(done, total int) {
			assert.Equal(t, 3, total)
			prog = append(prog, done)
		}),
		mediator.WithBatchOnError(func(i int, o mediator.Outcome) {
			failed = append(failed, i)
			assert.Equal(t, testCmd{ID: "bad"}, o.Command)
		}),
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch command 1 testCmd: bad command")
	assert.Equal(t, []int{1, 2, 3}, prog)
	assert.Equal(t, []int{1}, failed)

	require.Len(t, outs, 3)
	assert.Equal(t, []string{"a"}, ids(outs[0].Records))
	assert.Equal(t, []string{"bad"}, ids(outs[1].Records))
	assert.Equal(t, []string{"b"}, ids(outs[2].Records))
	assert.Equal(t, uint64(1), outs[2].Records[0].Sequence, "each command starts a fresh log")
	require.NoError(t, outs[0].Err)
	require.Error(t, outs[1].Err)

	assert.Empty(t, m.PublishedEvents(t.Context()))
}

func Test_Batch_MissingHandlerIsReportedPerCommand(t *testing.T) {
	m, _ := newEchoing(t, nil)

	type unknownCmd struct{}

	outs, err := m.Batch(t.Context(), []cbus.Command{unknownCmd{}, testCmd{ID: "a"}})
	require.Error(t, err)
	require.Len(t, outs, 2)
	require.Error(t, outs[0].Err)
	require.NoError(t, outs[1].Err)
}

func Test_Batch_StopsWhenContextEnds(t *testing.T) {
	m, calls := newEchoing(t, nil)

	ctx, cancel := context.WithCancel(t.Context())

	outs, err := m.Batch(ctx, []cbus.Command{testCmd{ID: "a"}, testCmd{ID: "b"}},
		mediator.WithBatchProgress(func(int, int) { cancel() }),
	)

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, outs, 1)
	assert.Equal(t, 1, *calls)
}

func Test_ExportRecords_SendsChainRecords(t *testing.T) {
	ex := inmemory.New()
	m, _ := newEchoing(t, ex)

	recs, err := m.Chain(t.Context(), testCmd{ID: "a"}, testCmd{ID: "b"})
	require.NoError(t, err)

	require.NoError(t, m.ExportRecords(t.Context(), recs, cbus.ExportOptions{Subject: "audit"}))
	assert.Equal(t, recs, ex.Records())

	bare, _ := newEchoing(t, nil)
	require.ErrorIs(t, bare.ExportRecords(t.Context(), recs, cbus.ExportOptions{}), berr.ErrExporterNotConfigured)
}
