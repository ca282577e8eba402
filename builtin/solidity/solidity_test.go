// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/thor-dao/lvldb"
	"github.com/vechain/thor-dao/state"
	"github.com/vechain/thor-dao/thor"
)

type TestStruct struct {
	Field1 uint64
	Field2 []*big.Int
	Addr1  thor.Address
}

func newContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(thor.BytesToAddress([]byte("contract")), state.New(db))
}

func TestMappingStruct(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[thor.Bytes32, *TestStruct](ctx, thor.BytesToBytes32([]byte("structs")))

	key := thor.BytesToBytes32([]byte("key"))
	got, err := m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, &TestStruct{}, got, "absent key decodes to a zero value")

	value := &TestStruct{Field1: 100, Field2: []*big.Int{big.NewInt(1), big.NewInt(2)}, Addr1: thor.BytesToAddress([]byte("a"))}
	assert.NoError(t, m.Set(key, value))

	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, value.Field1, got.Field1)
	assert.Equal(t, value.Addr1, got.Addr1)
	assert.Equal(t, 0, value.Field2[1].Cmp(got.Field2[1]))

	m.Delete(key)
	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), got.Field1)
}

func TestMappingSlice(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[thor.Bytes32, []uint64](ctx, thor.BytesToBytes32([]byte("lists")))

	key := thor.Uint64ToBytes32(3)
	got, err := m.Get(key)
	assert.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, m.Set(key, []uint64{1, 2, 3}))
	got, err = m.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, got)

	// same key, different base position
	other := NewMapping[thor.Bytes32, []uint64](ctx, thor.BytesToBytes32([]byte("others")))
	got, err = other.Get(key)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestMappingDecodeError(t *testing.T) {
	ctx := newContext(t)
	base := thor.BytesToBytes32([]byte("bad"))
	m := NewMapping[thor.Bytes32, *TestStruct](ctx, base)
	key := thor.BytesToBytes32([]byte("key"))

	ctx.state.SetRawStorage(ctx.address, thor.Blake2b(key.Bytes(), base.Bytes()), rlp.RawValue{0xFF})
	_, err := m.Get(key)
	assert.Error(t, err)
}

func TestUint256(t *testing.T) {
	ctx := newContext(t)
	u := NewUint256(ctx, thor.BytesToBytes32([]byte("total")))

	v, err := u.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), v.Int64())

	assert.NoError(t, u.Add(big.NewInt(100)))
	assert.NoError(t, u.Sub(big.NewInt(40)))
	v, err = u.Get()
	assert.NoError(t, err)
	assert.Equal(t, int64(60), v.Int64())

	assert.ErrorIs(t, u.Sub(big.NewInt(61)), ErrUnderflow)
	v, _ = u.Get()
	assert.Equal(t, int64(60), v.Int64(), "failed sub leaves value untouched")

	u.Set(big.NewInt(0))
	v, _ = u.Get()
	assert.Equal(t, 0, v.Sign())
}

func TestConfigVariable(t *testing.T) {
	config := NewConfigVariable("epoch-period", 10)
	assert.Equal(t, uint32(10), config.Get())
	assert.Equal(t, "epoch-period", config.Name())
	assert.Equal(t, thor.BytesToBytes32([]byte("epoch-period")), config.Slot())

	ctx := newContext(t)
	config.Override(ctx)
	assert.Equal(t, uint32(10), config.Get())

	config = NewConfigVariable("epoch-period", 10)
	ctx.state.SetStorage(ctx.address, config.Slot(), thor.BytesToBytes32([]byte{0x01, 0x00}))
	config.Override(ctx)
	assert.Equal(t, uint32(256), config.Get())

	// only the first override reads the storage
	ctx.state.SetStorage(ctx.address, config.Slot(), thor.BytesToBytes32([]byte{0x02}))
	config.Override(ctx)
	assert.Equal(t, uint32(256), config.Get())

	// values exceeding uint32 are ignored
	config = NewConfigVariable("epoch-period", 10)
	var be8 [8]byte
	binary.BigEndian.PutUint64(be8[:], 1<<40)
	ctx.state.SetStorage(ctx.address, config.Slot(), thor.BytesToBytes32(be8[:]))
	config.Override(ctx)
	assert.Equal(t, uint32(10), config.Get())
}
