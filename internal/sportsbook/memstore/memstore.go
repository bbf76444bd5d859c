// Package memstore é um Store em memória: transações serializadas por mutex e
// aplicadas só quando fn termina sem erro. Usado em testes e no modo local do admin.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
)

type entry struct {
	kind    string
	body    []byte
	version uint64
}

// LedgerEntry é uma linha do histórico de transferências
type LedgerEntry struct {
	From   sportsbook.Account
	To     sportsbook.Account
	Amount uint64
	Memo   string
}

type Store struct {
	mu       sync.Mutex
	records  map[uuid.UUID]entry
	balances map[sportsbook.Account]uint64
	ledger   []LedgerEntry
}

func New() *Store {
	return &Store{
		records:  make(map[uuid.UUID]entry),
		balances: make(map[sportsbook.Account]uint64),
	}
}

// Mint credita tokens novos numa conta (faz o papel do emissor do token)
func (s *Store) Mint(acct sportsbook.Account, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, err := checkedAdd(s.balances[acct], amount)
	if err != nil {
		return err
	}
	s.balances[acct] = bal
	s.ledger = append(s.ledger, LedgerEntry{To: acct, Amount: amount, Memo: "mint"})
	return nil
}

// Ledger devolve uma cópia do histórico de transferências
func (s *Store) Ledger() []LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LedgerEntry(nil), s.ledger...)
}

// Supply soma o saldo de todas as contas
func (s *Store) Supply() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total uint64
	for _, b := range s.balances {
		var err error
		if total, err = checkedAdd(total, b); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, sportsbook.ErrCalculationOverflow
	}
	return sum, nil
}

// Accounts lista as contas já movimentadas, em ordem
func (s *Store) Accounts() []sportsbook.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sportsbook.Account, 0, len(s.balances))
	for a := range s.balances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) Update(ctx context.Context, fn func(tx sportsbook.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := &tx{
		s:        s,
		records:  make(map[uuid.UUID]entry),
		balances: make(map[sportsbook.Account]uint64),
	}
	if err := fn(pending); err != nil {
		return err
	}
	for k, e := range pending.records {
		s.records[k] = e
	}
	for a, b := range pending.balances {
		s.balances[a] = b
	}
	s.ledger = append(s.ledger, pending.ledger...)
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx sportsbook.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{s: s, readOnly: true})
}

// tx guarda as escritas pendentes; leituras veem primeiro o que a própria tx escreveu
type tx struct {
	s        *Store
	readOnly bool
	records  map[uuid.UUID]entry
	balances map[sportsbook.Account]uint64
	ledger   []LedgerEntry
}

func (t *tx) lookup(key uuid.UUID) (entry, bool) {
	if e, ok := t.records[key]; ok {
		return e, true
	}
	e, ok := t.s.records[key]
	return e, ok
}

func (t *tx) Get(_ context.Context, key uuid.UUID, dst sportsbook.Record) error {
	e, ok := t.lookup(key)
	if !ok {
		return sportsbook.ErrRecordNotFound
	}
	if e.kind != dst.Kind() {
		return fmt.Errorf("memstore: record %s is %s, not %s", key, e.kind, dst.Kind())
	}
	return json.Unmarshal(e.body, dst)
}

func (t *tx) Insert(_ context.Context, rec sportsbook.Record) error {
	if t.readOnly {
		return fmt.Errorf("memstore: insert in read-only tx")
	}
	if _, ok := t.lookup(rec.Key()); ok {
		return sportsbook.ErrRecordExists
	}
	return t.put(rec, revision(rec))
}

func (t *tx) Save(_ context.Context, rec sportsbook.Record) error {
	if t.readOnly {
		return fmt.Errorf("memstore: save in read-only tx")
	}
	cur, ok := t.lookup(rec.Key())
	if !ok {
		return sportsbook.ErrRecordNotFound
	}
	if v, ok := rec.(sportsbook.Versioned); ok && cur.version+1 != v.Revision() {
		return sportsbook.ErrStaleRecord
	}
	return t.put(rec, revision(rec))
}

func (t *tx) put(rec sportsbook.Record, version uint64) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	t.records[rec.Key()] = entry{kind: rec.Kind(), body: b, version: version}
	return nil
}

func revision(rec sportsbook.Record) uint64 {
	if v, ok := rec.(sportsbook.Versioned); ok {
		return v.Revision()
	}
	return 0
}

func (t *tx) Balance(_ context.Context, acct sportsbook.Account) (uint64, error) {
	if b, ok := t.balances[acct]; ok {
		return b, nil
	}
	return t.s.balances[acct], nil
}

func (t *tx) Transfer(ctx context.Context, from, to sportsbook.Account, amount uint64, memo string) error {
	if t.readOnly {
		return fmt.Errorf("memstore: transfer in read-only tx")
	}
	if amount == 0 || from == to {
		return nil
	}
	fb, _ := t.Balance(ctx, from)
	if fb < amount {
		return sportsbook.ErrInsufficientFunds
	}
	tb, _ := t.Balance(ctx, to)
	credited, err := checkedAdd(tb, amount)
	if err != nil {
		return err
	}
	t.balances[from] = fb - amount
	t.balances[to] = credited
	t.ledger = append(t.ledger, LedgerEntry{From: from, To: to, Amount: amount, Memo: memo})
	return nil
}
