package amm

import (
	"fmt"
	"sort"

	"oracleAMM/internal/model"
)

// Snapshot copies the full engine state. Balances are left to the ledger.
func (e *Engine) Snapshot() model.Snapshot {
	return e.SnapshotWith(nil)
}

// SnapshotWith copies the engine state and fills Balances from balances while
// no operation can run, so the two describe the same sequence. balances must
// not call back into the engine.
func (e *Engine) SnapshotWith(balances func() []model.Balance) model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshotLocked()
	if balances != nil {
		snap.Balances = balances()
	}
	return snap
}

func (e *Engine) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		Owner:        e.st.owner,
		Treasury:     e.st.treasury,
		Sequence:     e.st.sequence,
		Pools:        make([]model.Pool, 0, len(e.st.pools)),
		Positions:    make([]model.Position, 0, len(e.st.positions)),
		Pairs:        make([]model.Pair, 0, len(e.st.pairs)),
		ProtocolFees: make([]model.FeeBucket, 0, len(e.st.fees)),
		TakenAt:      e.now().UTC(),
	}
	for _, p := range e.st.pools {
		snap.Pools = append(snap.Pools, *p.Clone())
	}
	for _, p := range e.st.positions {
		snap.Positions = append(snap.Positions, *p.Clone())
	}
	for _, p := range e.st.pairs {
		snap.Pairs = append(snap.Pairs, p)
	}
	for token, amount := range e.st.fees {
		if amount.IsZero() {
			continue
		}
		snap.ProtocolFees = append(snap.ProtocolFees, model.FeeBucket{Token: token, Amount: amount.Clone()})
	}

	sort.Slice(snap.Pools, func(i, j int) bool { return snap.Pools[i].Token < snap.Pools[j].Token })
	sort.Slice(snap.Positions, func(i, j int) bool {
		if snap.Positions[i].Token != snap.Positions[j].Token {
			return snap.Positions[i].Token < snap.Positions[j].Token
		}
		return snap.Positions[i].Owner < snap.Positions[j].Owner
	})
	sort.Slice(snap.Pairs, func(i, j int) bool {
		if snap.Pairs[i].TokenIn != snap.Pairs[j].TokenIn {
			return snap.Pairs[i].TokenIn < snap.Pairs[j].TokenIn
		}
		return snap.Pairs[i].TokenOut < snap.Pairs[j].TokenOut
	})
	sort.Slice(snap.ProtocolFees, func(i, j int) bool { return snap.ProtocolFees[i].Token < snap.ProtocolFees[j].Token })
	return snap
}

// Restore replaces engine state with snap. The oracle is kept.
func (e *Engine) Restore(snap model.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	owner := snap.Owner
	if owner == "" {
		owner = e.st.owner
	}
	treasury := snap.Treasury
	if treasury == "" {
		treasury = owner
	}
	next := newState(owner, treasury, e.st.oracle)
	next.sequence = snap.Sequence
	for i := range snap.Pools {
		p := snap.Pools[i].Clone()
		if p.Token == "" {
			return errPrincipalRequired
		}
		next.pools[p.Token] = p
	}
	for i := range snap.Positions {
		p := snap.Positions[i].Clone()
		if _, ok := next.pools[p.Token]; !ok {
			return fmt.Errorf("amm: position of %s references unknown pool %s", p.Owner, p.Token)
		}
		next.positions[positionKey{owner: p.Owner, token: p.Token}] = p
	}
	for _, p := range snap.Pairs {
		next.pairs[pairKey{in: p.TokenIn, out: p.TokenOut}] = p
	}
	for _, b := range snap.ProtocolFees {
		next.fees[b.Token] = intOrZero(b.Amount)
	}
	e.st = next
	return nil
}
