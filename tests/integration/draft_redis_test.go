package integration

import (
	"context"
	"testing"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/infrastructure/draft"
	"github.com/erp/workstation/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisDraft(t *testing.T, datasetID string) *printing.PrintDraft {
	t.Helper()
	d, err := printing.NewPrintDraft(datasetID, printing.DefaultDraftConfig([]printing.PrintColumnDefinition{
		{Key: "label", Label: "Label"},
	}))
	require.NoError(t, err)
	return d
}

func TestRedisDraftStore(t *testing.T) {
	redisCfg := NewTestRedis(t)
	ctx, cancelAll := testutil.ContextWithTimeout(t, 2*time.Minute)
	defer cancelAll()

	// two stores stand in for two server instances
	a, err := draft.NewRedisStore(redisCfg, draft.WithRedisKeyPrefix("it-draft"), draft.WithRedisChannel("it-draft:changes"))
	require.NoError(t, err)
	defer a.Close()
	b, err := draft.NewRedisStore(redisCfg, draft.WithRedisKeyPrefix("it-draft"), draft.WithRedisChannel("it-draft:changes"))
	require.NoError(t, err)
	defer b.Close()

	t.Run("round trip across instances", func(t *testing.T) {
		require.NoError(t, a.Save(ctx, "budget-2026", newRedisDraft(t, "budget-2026")))

		got, err := b.Load(ctx, "budget-2026")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"label"}, got.Config.Columns)

		has, err := b.HasDraft(ctx, "budget-2026")
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, b.Delete(ctx, "budget-2026"))
		got, err = a.Load(ctx, "budget-2026")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("changes reach watchers on other instances once", func(t *testing.T) {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		remote, err := b.Watch(watchCtx, "funds-2026")
		require.NoError(t, err)
		local, err := a.Watch(watchCtx, "funds-2026")
		require.NoError(t, err)

		require.NoError(t, a.Save(printing.WithDraftSource(ctx, "tab-a"), "funds-2026", newRedisDraft(t, "funds-2026")))

		for _, ch := range []<-chan printing.DraftChange{local, remote} {
			select {
			case c := <-ch:
				assert.Equal(t, printing.DraftSaved, c.Type)
				assert.Equal(t, "tab-a", c.Source)
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for draft change")
			}
		}

		// the publishing instance skips its own echo
		testutil.AssertNever(t, func() bool {
			select {
			case <-local:
				return true
			default:
				return false
			}
		}, 300*time.Millisecond, 20*time.Millisecond, "duplicate change on the publishing instance")
	})

	t.Run("ttl expires drafts", func(t *testing.T) {
		short, err := draft.NewRedisStore(redisCfg, draft.WithRedisKeyPrefix("it-ttl"), draft.WithRedisTTL(time.Second))
		require.NoError(t, err)
		defer short.Close()

		require.NoError(t, short.Save(ctx, "budget-2026", newRedisDraft(t, "budget-2026")))
		testutil.AssertEventually(t, func() bool {
			has, err := short.HasDraft(ctx, "budget-2026")
			return err == nil && !has
		}, 5*time.Second, 100*time.Millisecond, "draft did not expire")
	})
}
