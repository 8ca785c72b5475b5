package model

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
)

func TestPoolJSONStringAmounts(t *testing.T) {
	pool := Pool{
		Token:                 "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.mock-token-a",
		TotalLiquidity:        uint256.NewInt(10_000_000_000),
		TotalShares:           uint256.NewInt(9_999_999_000),
		LockedLiquidity:       uint256.NewInt(1000),
		FeePool:               uint256.NewInt(0),
		CumulativeFeePerShare: uint256.NewInt(0),
	}

	data, err := json.Marshal(pool)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got, ok := decoded["total_liquidity"].(string); !ok || got != "10000000000" {
		t.Fatalf("total_liquidity should be decimal string, got %v", decoded["total_liquidity"])
	}
	if _, ok := decoded["total_shares"].(string); !ok {
		t.Fatalf("total_shares should be string")
	}
}

func TestPoolCloneIsDeep(t *testing.T) {
	pool := &Pool{
		Token:           "token-a",
		TotalLiquidity:  uint256.NewInt(5000),
		TotalShares:     uint256.NewInt(4000),
		LockedLiquidity: uint256.NewInt(1000),
	}
	clone := pool.Clone()
	clone.TotalLiquidity.AddUint64(clone.TotalLiquidity, 1)

	if pool.TotalLiquidity.Uint64() != 5000 {
		t.Fatalf("clone aliased original liquidity: %s", pool.TotalLiquidity)
	}
	if clone.FeePool == nil || !clone.FeePool.IsZero() {
		t.Fatalf("nil fee pool should clone to zero")
	}
}

func TestPoolRedeemable(t *testing.T) {
	cases := []struct {
		name   string
		pool   *Pool
		expect uint64
	}{
		{name: "nil", pool: nil, expect: 0},
		{name: "seeded", pool: &Pool{TotalLiquidity: uint256.NewInt(10_000), LockedLiquidity: uint256.NewInt(1000)}, expect: 9000},
		{name: "only lock", pool: &Pool{TotalLiquidity: uint256.NewInt(1000), LockedLiquidity: uint256.NewInt(1000)}, expect: 0},
		{name: "below lock", pool: &Pool{TotalLiquidity: uint256.NewInt(10), LockedLiquidity: uint256.NewInt(1000)}, expect: 0},
	}
	for _, tc := range cases {
		if got := tc.pool.Redeemable().Uint64(); got != tc.expect {
			t.Fatalf("%s: redeemable %d, want %d", tc.name, got, tc.expect)
		}
	}
}
