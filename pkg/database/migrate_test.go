package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDB struct {
	DBTX
	execs []string
	fail  error
}

func (db *recordingDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, sql)
	return pgconn.CommandTag{}, db.fail
}

func TestMigrateAppliesFilesInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"002_rooms.sql": {Data: []byte("CREATE TABLE rooms ();")},
		"001_init.sql":  {Data: []byte("CREATE TABLE users ();")},
		"README.md":     {Data: []byte("ignored")},
	}
	db := &recordingDB{}

	applied, err := Migrate(context.Background(), db, fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_rooms.sql"}, applied)
	assert.Equal(t, []string{"CREATE TABLE users ();", "CREATE TABLE rooms ();"}, db.execs)
}

func TestMigrateStopsOnError(t *testing.T) {
	fsys := fstest.MapFS{
		"001_init.sql":  {Data: []byte("BROKEN")},
		"002_rooms.sql": {Data: []byte("CREATE TABLE rooms ();")},
	}
	db := &recordingDB{fail: errors.New("syntax error")}

	_, err := Migrate(context.Background(), db, fsys)
	assert.ErrorContains(t, err, "001_init.sql")
	assert.Len(t, db.execs, 1)
}
