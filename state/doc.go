// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages contract storage of built-in contracts.
//
// Storage is addressed by (contract address, 32 bytes slot). All writes go to
// a journaled overlay, so a sequence of writes can be reverted to a checkpoint,
// and are only persisted into the underlying kv store by committing a stage.
package state
