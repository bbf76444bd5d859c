// Package repo guarda o ledger do sportsbook no Postgres.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
)

// Schema cria as tabelas usadas pelo store. Saldos em NUMERIC(20,0) para caber um uint64 inteiro.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_records (
	key        UUID PRIMARY KEY,
	kind       TEXT NOT NULL,
	body       JSONB NOT NULL,
	version    BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ledger_records_kind_idx ON ledger_records(kind);

CREATE TABLE IF NOT EXISTS token_accounts (
	account    TEXT PRIMARY KEY,
	balance    NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS token_ledger (
	id           BIGSERIAL PRIMARY KEY,
	from_account TEXT,
	to_account   TEXT NOT NULL,
	amount       NUMERIC(20,0) NOT NULL,
	memo         TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const (
	qGetRecord       = `SELECT kind, body FROM ledger_records WHERE key=$1`
	qGetRecordLocked = `SELECT kind, body FROM ledger_records WHERE key=$1 FOR UPDATE`
	qInsertRecord    = `INSERT INTO ledger_records(key, kind, body, version) VALUES($1,$2,$3,$4) ON CONFLICT (key) DO NOTHING`
	qSaveVersioned   = `UPDATE ledger_records SET body=$2, version=$3, updated_at=now() WHERE key=$1 AND version=$4`
	qSaveRecord      = `UPDATE ledger_records SET body=$2, updated_at=now() WHERE key=$1`
	qRecordExists    = `SELECT 1 FROM ledger_records WHERE key=$1`

	qBalance = `SELECT balance::text FROM token_accounts WHERE account=$1`
	qDebit   = `UPDATE token_accounts SET balance = balance - $2::numeric, updated_at=now() WHERE account=$1 AND balance >= $2::numeric`
	qCredit  = `INSERT INTO token_accounts(account, balance) VALUES($1,$2::numeric)
ON CONFLICT (account) DO UPDATE SET balance = token_accounts.balance + EXCLUDED.balance, updated_at=now()`
	qLedger = `INSERT INTO token_ledger(from_account, to_account, amount, memo) VALUES($1,$2,$3::numeric,$4)`
)

// códigos do Postgres que pedem repetir a transação inteira
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const defaultMaxAttempts = 5

// Postgres implementa sportsbook.Store com transações SERIALIZABLE
type Postgres struct {
	db          *sql.DB
	maxAttempts int
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, maxAttempts: defaultMaxAttempts}
}

// Migrate aplica o Schema (idempotente)
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

// Ping é usado no /healthz
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Update roda fn numa transação serializável e repete em conflito de serialização.
// fn pode ser chamada mais de uma vez.
func (p *Postgres) Update(ctx context.Context, fn func(tx sportsbook.Tx) error) error {
	var err error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		err = p.runTx(ctx, false, fn)
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("ledger tx gave up after %d attempts: %w", p.maxAttempts, err)
}

func (p *Postgres) View(ctx context.Context, fn func(tx sportsbook.Tx) error) error {
	return p.runTx(ctx, true, fn)
}

func (p *Postgres) runTx(ctx context.Context, readOnly bool, fn func(tx sportsbook.Tx) error) error {
	sqlTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: readOnly})
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{tx: sqlTx, readOnly: readOnly}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Mint credita tokens novos numa conta e registra no ledger sem conta de origem
func (p *Postgres) Mint(ctx context.Context, acct sportsbook.Account, amount uint64) error {
	return p.Update(ctx, func(t sportsbook.Tx) error {
		pt := t.(*tx)
		if err := pt.credit(ctx, acct, amount); err != nil {
			return err
		}
		_, err := pt.tx.ExecContext(ctx, qLedger, nil, string(acct), formatAmount(amount), "mint")
		return err
	})
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}

type tx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *tx) Get(ctx context.Context, key uuid.UUID, dst sportsbook.Record) error {
	q := qGetRecordLocked
	if t.readOnly {
		q = qGetRecord
	}
	var kind string
	var body []byte
	err := t.tx.QueryRowContext(ctx, q, key).Scan(&kind, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return sportsbook.ErrRecordNotFound
	}
	if err != nil {
		return err
	}
	if kind != dst.Kind() {
		return fmt.Errorf("record %s is %s, not %s", key, kind, dst.Kind())
	}
	return json.Unmarshal(body, dst)
}

func (t *tx) Insert(ctx context.Context, rec sportsbook.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, qInsertRecord, rec.Key(), rec.Kind(), body, int64(revision(rec)))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sportsbook.ErrRecordExists
	}
	return nil
}

func (t *tx) Save(ctx context.Context, rec sportsbook.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	var res sql.Result
	if v, ok := rec.(sportsbook.Versioned); ok {
		rev := int64(v.Revision())
		res, err = t.tx.ExecContext(ctx, qSaveVersioned, rec.Key(), body, rev, rev-1)
	} else {
		res, err = t.tx.ExecContext(ctx, qSaveRecord, rec.Key(), body)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// nenhuma linha: ou não existe ou a versão ficou para trás
	var one int
	err = t.tx.QueryRowContext(ctx, qRecordExists, rec.Key()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return sportsbook.ErrRecordNotFound
	}
	if err != nil {
		return err
	}
	return sportsbook.ErrStaleRecord
}

func (t *tx) Balance(ctx context.Context, acct sportsbook.Account) (uint64, error) {
	var raw string
	err := t.tx.QueryRowContext(ctx, qBalance, string(acct)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}

// Transfer debita com guarda de saldo, credita (criando a conta se preciso) e grava a linha do ledger
func (t *tx) Transfer(ctx context.Context, from, to sportsbook.Account, amount uint64, memo string) error {
	if amount == 0 || from == to {
		return nil
	}
	res, err := t.tx.ExecContext(ctx, qDebit, string(from), formatAmount(amount))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sportsbook.ErrInsufficientFunds
	}

	bal, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	if bal+amount < bal {
		return sportsbook.ErrCalculationOverflow
	}
	if err := t.credit(ctx, to, amount); err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, qLedger, string(from), string(to), formatAmount(amount), memo)
	return err
}

func (t *tx) credit(ctx context.Context, acct sportsbook.Account, amount uint64) error {
	_, err := t.tx.ExecContext(ctx, qCredit, string(acct), formatAmount(amount))
	return err
}

func revision(rec sportsbook.Record) uint64 {
	if v, ok := rec.(sportsbook.Versioned); ok {
		return v.Revision()
	}
	return 0
}

func formatAmount(v uint64) string { return strconv.FormatUint(v, 10) }
