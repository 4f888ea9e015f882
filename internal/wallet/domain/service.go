package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Service moves value between addresses.
type Service interface {
	// Transfer moves amount from one address to another inside tx.
	// When tx is nil the transfer runs in its own transaction.
	Transfer(ctx context.Context, tx *gorm.DB, from, to common.Address, amount int64, memo string) error
	// Deposit credits an address with value entering from outside the system.
	Deposit(ctx context.Context, to common.Address, amount int64) (int64, error)
	Balance(ctx context.Context, addr common.Address) (int64, error)
	History(ctx context.Context, addr common.Address, limit int) ([]TransferLine, error)
}

type Repository interface {
	GetBalance(ctx context.Context, db *gorm.DB, address string) (int64, error)
	Debit(ctx context.Context, db *gorm.DB, address string, amount int64) (bool, error)
	Credit(ctx context.Context, db *gorm.DB, address string, amount int64) error
	InsertTransfer(ctx context.Context, db *gorm.DB, transfer *Transfer, lines []TransferLine) error
	ListLines(ctx context.Context, db *gorm.DB, address string, limit int) ([]TransferLine, error)
}
