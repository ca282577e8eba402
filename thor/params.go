// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Constants of governance.
const (
	BPS uint64 = 10000 // 100% in basis points

	// MaxUint32 is the largest block number.
	MaxUint32 = ^uint32(0)
)

var (
	// Precision is the fixed-point unit of formula parameters, 1e18 == 100%.
	Precision = big.NewInt(1e18)

	// Address of the built-in dao contract.
	DAOAddress = BytesToAddress([]byte("DAO"))
	// Address of the built-in staking ledger.
	StakingAddress = BytesToAddress([]byte("Staking"))
	// Address of the built-in reward pool.
	SettlementAddress = BytesToAddress([]byte("Settlement"))
)
