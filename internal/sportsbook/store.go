package sportsbook

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Erros do store; o motor traduz para erros de domínio
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")
	ErrStaleRecord    = errors.New("stale record version")
)

// Record é qualquer registro persistido sob uma chave determinística
type Record interface {
	Key() uuid.UUID
	Kind() string
}

// Versioned marca registros com controle otimista: Save só grava se a versão
// armazenada for Revision()-1.
type Versioned interface {
	Revision() uint64
}

// Tx é a visão transacional do ledger hospedeiro: registros e transferências de token
// aplicados juntos ou não aplicados.
type Tx interface {
	Get(ctx context.Context, key uuid.UUID, dst Record) error
	Insert(ctx context.Context, rec Record) error
	Save(ctx context.Context, rec Record) error
	// Transfer devolve ErrInsufficientFunds se from não tiver saldo
	Transfer(ctx context.Context, from, to Account, amount uint64, memo string) error
	Balance(ctx context.Context, acct Account) (uint64, error)
}

// Store executa fn com acesso exclusivo de leitura e escrita. Se fn devolver erro nada é gravado.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
