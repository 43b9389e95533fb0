package draft

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/workstation/internal/domain/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, WithFileKeyPrefix("ws-draft"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(context.Background(), "budget-2026", newTestDraft(t, "budget-2026")))

	data, err := os.ReadFile(filepath.Join(dir, "ws-draft-budget-2026.json"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "budget-2026", raw["datasetId"])
	assert.EqualValues(t, printing.CurrentDraftSchemaVersion, raw["schemaVersion"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_CorruptDraft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	path := filepath.Join(dir, printing.DraftKey("", "budget-2026")+".json")

	t.Run("unparseable json", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := s.Load(context.Background(), "budget-2026")
		assert.ErrorIs(t, err, printing.ErrInvalidDraft)
	})

	t.Run("draft of another dataset", func(t *testing.T) {
		foreign, err := json.Marshal(newTestDraft(t, "funds-2026"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, foreign, 0o600))
		_, err = s.Load(context.Background(), "budget-2026")
		assert.ErrorIs(t, err, printing.ErrInvalidDraft)
	})

	t.Run("newer schema", func(t *testing.T) {
		d := newTestDraft(t, "budget-2026")
		d.SchemaVersion = printing.CurrentDraftSchemaVersion + 1
		data, err := json.Marshal(d)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o600))
		_, err = s.Load(context.Background(), "budget-2026")
		assert.ErrorIs(t, err, printing.ErrInvalidDraft)
	})

	t.Run("delete clears a corrupt draft", func(t *testing.T) {
		require.NoError(t, s.Delete(context.Background(), "budget-2026"))
		d, err := s.Load(context.Background(), "budget-2026")
		require.NoError(t, err)
		assert.Nil(t, d)
	})
}

func TestFileStore_ExternalChanges(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.Watch(ctx, "budget-2026")
	require.NoError(t, err)

	// another process sharing the directory writes the draft
	data, err := json.Marshal(newTestDraft(t, "budget-2026"))
	require.NoError(t, err)
	path := filepath.Join(dir, printing.DraftKey("", "budget-2026")+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c := receive(t, ch)
	assert.Equal(t, printing.DraftSaved, c.Type)
	assert.Equal(t, externalSource, c.Source)

	// drain follow-up write events of the same external save
	drain(ch)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		select {
		case c := <-ch:
			return c.Type == printing.DraftDeleted && c.Source == externalSource
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileStore_OwnWritesAreNotReportedAsExternal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.Watch(ctx, "budget-2026")
	require.NoError(t, err)

	require.NoError(t, s.Save(printing.WithDraftSource(ctx, "tab-a"), "budget-2026", newTestDraft(t, "budget-2026")))
	c := receive(t, ch)
	assert.Equal(t, "tab-a", c.Source)

	assert.Never(t, func() bool {
		select {
		case c := <-ch:
			return c.Source == externalSource
		default:
			return false
		}
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestFileStore_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	id, ok := s.datasetFromFile("print-draft-budget-2026.json")
	assert.True(t, ok)
	assert.Equal(t, "budget-2026", id)

	for _, name := range []string{"notes.txt", "print-draft-.json", ".draft-123.tmp", "other-budget-2026.json", "print-draft-Budget 2026.json"} {
		_, ok := s.datasetFromFile(name)
		assert.False(t, ok, name)
	}
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func drain(ch <-chan printing.DraftChange) {
	for {
		select {
		case <-ch:
		case <-time.After(200 * time.Millisecond):
			return
		}
	}
}
