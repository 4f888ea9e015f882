package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Direction represents debit or credit postings.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

type TransferKind string

const (
	TransferKindTransfer TransferKind = "transfer"
	TransferKindDeposit  TransferKind = "deposit"
)

// Account holds the spendable balance of an address, in gwei.
type Account struct {
	Address   string    `gorm:"column:address;type:varchar(42);primaryKey" json:"address"`
	Balance   int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Account) TableName() string { return "wallet_accounts" }

// Transfer is the immutable header of one value movement.
type Transfer struct {
	ID        snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	Kind      TransferKind `gorm:"column:kind;type:text;not null" json:"kind"`
	Memo      string       `gorm:"column:memo;type:text" json:"memo,omitempty"`
	Amount    int64        `gorm:"column:amount;not null" json:"amount"`
	CreatedAt time.Time    `gorm:"column:created_at;not null" json:"created_at"`
}

func (Transfer) TableName() string { return "wallet_transfers" }

// TransferLine is a double-entry posting line.
type TransferLine struct {
	ID         snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	TransferID snowflake.ID `gorm:"column:transfer_id;not null;index" json:"transfer_id"`
	Address    string       `gorm:"column:address;type:varchar(42);not null;index" json:"address"`
	Direction  Direction    `gorm:"column:direction;type:text;not null" json:"direction"`
	Amount     int64        `gorm:"column:amount;not null" json:"amount"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null" json:"created_at"`
}

func (TransferLine) TableName() string { return "wallet_transfer_lines" }

// ExternalAddress is the counterparty of deposits entering from outside the system.
const ExternalAddress = "0x0000000000000000000000000000000000000001"
