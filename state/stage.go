// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/thor-dao/kv"
)

// Stage abstracts changes on the storage.
type Stage struct {
	state   *State
	changes map[storageKey]rlp.RawValue
}

// Len returns the count of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit commits all changes into the kv store and clears the journal of the state.
func (s *Stage) Commit() error {
	bulk := s.state.db.Bulk()
	putter := kv.Bucket(storageBucket).NewPutter(bulk)
	for key, value := range s.changes {
		var err error
		if len(value) == 0 {
			err = putter.Delete(key.bytes())
		} else {
			err = putter.Put(key.bytes(), value)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}

	for key, value := range s.changes {
		s.state.cache.Add(key, value)
	}
	s.state.reset()
	return nil
}
