package token

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"oracleAMM/internal/model"
)

// ErrInsufficientBalance indicates a transfer source cannot cover the amount.
var ErrInsufficientBalance = errors.New("token: insufficient balance")

// Ledger moves fungible tokens. Apply executes the whole batch or nothing.
type Ledger interface {
	Apply(ctx context.Context, transfers []model.Transfer) error
}

// MemoryLedger keeps balances in process memory.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[model.Principal]map[model.Principal]*uint256.Int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[model.Principal]map[model.Principal]*uint256.Int)}
}

// Mint credits amount of token to account.
func (l *MemoryLedger) Mint(token, account model.Principal, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("token: mint amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.balanceLocked(token, account)
	sum, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("token: mint overflows balance of %s", account)
	}
	l.setLocked(token, account, sum)
	return nil
}

// Balance returns the balance of account in token.
func (l *MemoryLedger) Balance(token, account model.Principal) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(token, account).Clone()
}

func (l *MemoryLedger) Apply(ctx context.Context, transfers []model.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	type key struct{ token, account model.Principal }
	working := make(map[key]*uint256.Int)
	get := func(token, account model.Principal) *uint256.Int {
		k := key{token, account}
		if v, ok := working[k]; ok {
			return v
		}
		v := l.balanceLocked(token, account).Clone()
		working[k] = v
		return v
	}

	for i, tr := range transfers {
		if tr.Amount == nil || tr.Amount.IsZero() {
			continue
		}
		from := get(tr.Token, tr.From)
		if from.Lt(tr.Amount) {
			return fmt.Errorf("%w: transfer %d of %s from %s needs %s, has %s",
				ErrInsufficientBalance, i, tr.Token, tr.From, tr.Amount.Dec(), from.Dec())
		}
		to := get(tr.Token, tr.To)
		if _, overflow := new(uint256.Int).AddOverflow(to, tr.Amount); overflow {
			return fmt.Errorf("token: transfer %d overflows balance of %s", i, tr.To)
		}
		from.Sub(from, tr.Amount)
		to.Add(to, tr.Amount)
	}

	for k, v := range working {
		l.setLocked(k.token, k.account, v)
	}
	return nil
}

// Balances returns every non-zero balance, ordered by token then account.
func (l *MemoryLedger) Balances() []model.Balance {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Balance, 0)
	for token, accounts := range l.balances {
		for account, amount := range accounts {
			if amount.IsZero() {
				continue
			}
			out = append(out, model.Balance{Token: token, Account: account, Amount: amount.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Token != out[j].Token {
			return out[i].Token < out[j].Token
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// Restore replaces all balances.
func (l *MemoryLedger) Restore(balances []model.Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[model.Principal]map[model.Principal]*uint256.Int)
	for _, b := range balances {
		if b.Amount == nil {
			continue
		}
		l.setLocked(b.Token, b.Account, b.Amount.Clone())
	}
}

func (l *MemoryLedger) balanceLocked(token, account model.Principal) *uint256.Int {
	if accounts, ok := l.balances[token]; ok {
		if v, ok := accounts[account]; ok {
			return v
		}
	}
	return new(uint256.Int)
}

func (l *MemoryLedger) setLocked(token, account model.Principal, amount *uint256.Int) {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[model.Principal]*uint256.Int)
		l.balances[token] = accounts
	}
	accounts[account] = amount
}
