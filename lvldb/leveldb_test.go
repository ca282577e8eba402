// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/kv"
)

func TestLevelDB(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	bulk := db.Bulk()
	assert.NoError(t, bulk.Put([]byte("a"), []byte("1")))
	assert.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	assert.NoError(t, bulk.Delete([]byte("a")))
	assert.Equal(t, 3, bulk.Len())

	// nothing visible before write
	has, _ := db.Has([]byte("b"))
	assert.False(t, has)

	assert.NoError(t, bulk.Write())
	has, _ = db.Has([]byte("a"))
	assert.False(t, has)
	v, _ := db.Get([]byte("b"))
	assert.Equal(t, []byte("2"), v)
}

func TestPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")
	db, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(path, Options{CacheSize: 32})
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestCloseReleasesLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")
	db, err := New(path, Options{})
	require.NoError(t, err)

	_, err = New(path, Options{})
	assert.Error(t, err, "data dir is locked while open")

	require.NoError(t, db.Close())
	db, err = New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	b := kv.Bucket("s")
	assert.NoError(t, b.NewPutter(db).Put([]byte("k"), []byte("v")))

	v, err := db.Get([]byte("sk"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	v, err = b.NewGetter(db).Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
