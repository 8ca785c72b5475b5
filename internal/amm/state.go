package amm

import (
	"github.com/holiman/uint256"

	"oracleAMM/internal/model"
	"oracleAMM/internal/oracle"
)

type positionKey struct {
	owner model.Principal
	token model.Principal
}

type pairKey struct {
	in  model.Principal
	out model.Principal
}

type state struct {
	owner     model.Principal
	treasury  model.Principal
	oracle    oracle.Client
	sequence  uint64
	pools     map[model.Principal]*model.Pool
	positions map[positionKey]*model.Position
	pairs     map[pairKey]model.Pair
	fees      map[model.Principal]*uint256.Int
}

func newState(owner, treasury model.Principal, priceOracle oracle.Client) *state {
	return &state{
		owner:     owner,
		treasury:  treasury,
		oracle:    priceOracle,
		pools:     make(map[model.Principal]*model.Pool),
		positions: make(map[positionKey]*model.Position),
		pairs:     make(map[pairKey]model.Pair),
		fees:      make(map[model.Principal]*uint256.Int),
	}
}

// txn stages writes over a state. Records are cloned on first touch and a
// nil position marks a deletion.
type txn struct {
	base      *state
	pools     map[model.Principal]*model.Pool
	positions map[positionKey]*model.Position
	pairs     map[pairKey]model.Pair
	fees      map[model.Principal]*uint256.Int
	treasury  *model.Principal
	oracle    oracle.Client
	oracleSet bool
	transfers []model.Transfer
	events    []model.Event
}

func newTxn(base *state) *txn {
	return &txn{
		base:      base,
		pools:     make(map[model.Principal]*model.Pool),
		positions: make(map[positionKey]*model.Position),
		pairs:     make(map[pairKey]model.Pair),
		fees:      make(map[model.Principal]*uint256.Int),
	}
}

func (t *txn) owner() model.Principal {
	return t.base.owner
}

func (t *txn) currentTreasury() model.Principal {
	if t.treasury != nil {
		return *t.treasury
	}
	return t.base.treasury
}

func (t *txn) currentOracle() oracle.Client {
	if t.oracleSet {
		return t.oracle
	}
	return t.base.oracle
}

// pool returns a writable copy of the pool; changes are kept only after putPool.
func (t *txn) pool(token model.Principal) (*model.Pool, bool) {
	if p, ok := t.pools[token]; ok {
		return p, true
	}
	p, ok := t.base.pools[token]
	if !ok {
		return nil, false
	}
	clone := p.Clone()
	t.pools[token] = clone
	return clone, true
}

func (t *txn) putPool(p *model.Pool) {
	t.pools[p.Token] = p
}

func (t *txn) position(owner, token model.Principal) (*model.Position, bool) {
	key := positionKey{owner: owner, token: token}
	if p, ok := t.positions[key]; ok {
		return p, p != nil
	}
	p, ok := t.base.positions[key]
	if !ok {
		return nil, false
	}
	clone := p.Clone()
	t.positions[key] = clone
	return clone, true
}

func (t *txn) putPosition(p *model.Position) {
	t.positions[positionKey{owner: p.Owner, token: p.Token}] = p
}

func (t *txn) deletePosition(owner, token model.Principal) {
	t.positions[positionKey{owner: owner, token: token}] = nil
}

func (t *txn) pair(in, out model.Principal) (model.Pair, bool) {
	key := pairKey{in: in, out: out}
	if p, ok := t.pairs[key]; ok {
		return p, true
	}
	p, ok := t.base.pairs[key]
	return p, ok
}

func (t *txn) putPair(p model.Pair) {
	t.pairs[pairKey{in: p.TokenIn, out: p.TokenOut}] = p
}

// feeBucket returns a writable copy of the protocol fee balance for token.
func (t *txn) feeBucket(token model.Principal) *uint256.Int {
	if v, ok := t.fees[token]; ok {
		return v
	}
	v := intOrZero(t.base.fees[token])
	t.fees[token] = v
	return v
}

func (t *txn) putFees(token model.Principal, amount *uint256.Int) {
	t.fees[token] = amount
}

func (t *txn) setTreasury(p model.Principal) {
	t.treasury = &p
}

func (t *txn) setOracle(c oracle.Client) {
	t.oracle = c
	t.oracleSet = true
}

func (t *txn) transfer(token, from, to model.Principal, amount *uint256.Int) {
	if isZero(amount) {
		return
	}
	t.transfers = append(t.transfers, model.Transfer{Token: token, From: from, To: to, Amount: amount.Clone()})
}

func (t *txn) emit(ev model.Event) {
	t.events = append(t.events, ev)
}

func (t *txn) commit() {
	for k, v := range t.pools {
		t.base.pools[k] = v
	}
	for k, v := range t.positions {
		if v == nil {
			delete(t.base.positions, k)
			continue
		}
		t.base.positions[k] = v
	}
	for k, v := range t.pairs {
		t.base.pairs[k] = v
	}
	for k, v := range t.fees {
		t.base.fees[k] = v
	}
	if t.treasury != nil {
		t.base.treasury = *t.treasury
	}
	if t.oracleSet {
		t.base.oracle = t.oracle
	}
}
