package backup_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mdouchement/todokernel/internal/backup"
	"github.com/mdouchement/todokernel/internal/database"
	"github.com/mdouchement/todokernel/internal/store"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"
)

func TestDumpLoad(t *testing.T) {
	for _, format := range []string{backup.CBOR, backup.Binc} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			src := open(t)
			records := store.New(src, "todo")

			sealed, err := libtodo.Seal(libtodo.EncodeRecord(libtodo.Record{Title: "Buy milk", Owner: "alice"}), "alice")
			require.NoError(t, err)
			require.NoError(t, records.Put(ctx, 1, sealed))
			require.NoError(t, records.Put(ctx, 2, []byte("opaque")))
			require.NoError(t, src.Put(ctx, "/other/1", []byte("ignored")))

			var buf bytes.Buffer
			archive, err := backup.Dump(ctx, &buf, src.(database.Walker), "/todo/", format)
			require.NoError(t, err)
			assert.Equal(t, "todo", archive.Namespace)
			assert.Len(t, archive.Entries, 2)

			dst := open(t)
			restored, err := backup.Load(ctx, &buf, dst, "todo", format)
			require.NoError(t, err)
			assert.Equal(t, archive.Entries, restored.Entries)

			blob, err := dst.Get(ctx, "/todo/1")
			require.NoError(t, err)
			assert.Equal(t, sealed, blob)

			plaintext, err := libtodo.Open(blob, "alice")
			require.NoError(t, err)
			record, err := libtodo.DecodeRecord(plaintext)
			require.NoError(t, err)
			assert.Equal(t, "Buy milk", record.Title)

			_, err = dst.Get(ctx, "/other/1")
			assert.True(t, database.IsNotFound(err))
		})
	}
}

func TestDump_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	_, err := backup.Dump(context.Background(), &buf, open(t).(database.Walker), "todo", "json")
	assert.EqualError(t, err, `unsupported backup format "json"`)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		archive backup.Archive
		err     string
	}{
		{
			name:    "version",
			archive: backup.Archive{Version: 42, Namespace: "todo"},
			err:     "unsupported archive version 42",
		},
		{
			name:    "other namespace",
			archive: backup.Archive{Version: backup.Version, Namespace: "todos"},
			err:     `archive namespace "todos" does not match "todo"`,
		},
		{
			name: "foreign entry",
			archive: backup.Archive{
				Version:   backup.Version,
				Namespace: "todo",
				Entries:   []backup.Entry{{Key: "/users/1", Value: []byte{1}}},
			},
			err: `entry "/users/1" is outside of namespace "todo"`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, codec.NewEncoder(&buf, &codec.CborHandle{}).Encode(test.archive))

			_, err := backup.Load(context.Background(), &buf, open(t), "todo", backup.CBOR)
			assert.EqualError(t, err, test.err)
		})
	}
}

func TestLoad_Garbage(t *testing.T) {
	_, err := backup.Load(context.Background(), bytes.NewReader([]byte{0xff, 0x00}), open(t), "todo", backup.CBOR)
	assert.Error(t, err)
}

func open(t *testing.T) database.KeyValueStore {
	db, err := database.StormOpen(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
