package domain

import (
	"time"
)

// ContractState is the single row holding process-wide contract state.
type ContractState struct {
	ID          int       `gorm:"column:id;primaryKey" json:"-"`
	Operational bool      `gorm:"column:operational;not null" json:"operational"`
	Owner       string    `gorm:"column:owner;type:varchar(42);not null" json:"owner"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (ContractState) TableName() string { return "contract_state" }

// ContractStateID is the primary key of the only contract_state row.
const ContractStateID = 1

type Airline struct {
	Address      string     `gorm:"column:address;type:varchar(42);primaryKey" json:"address"`
	Name         string     `gorm:"column:name;type:text" json:"name"`
	IsRegistered bool       `gorm:"column:is_registered;not null" json:"is_registered"`
	IsFunded     bool       `gorm:"column:is_funded;not null" json:"is_funded"`
	RegisteredAt *time.Time `gorm:"column:registered_at" json:"registered_at,omitempty"`
	FundedAt     *time.Time `gorm:"column:funded_at" json:"funded_at,omitempty"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Airline) TableName() string { return "airlines" }

type AuthorizedCaller struct {
	Address      string    `gorm:"column:address;type:varchar(42);primaryKey" json:"address"`
	AuthorizedBy string    `gorm:"column:authorized_by;type:varchar(42)" json:"authorized_by"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (AuthorizedCaller) TableName() string { return "authorized_callers" }

// MultiSigEntry is one position in the append-only registry of registered airlines.
type MultiSigEntry struct {
	Position  uint64    `gorm:"column:position;primaryKey;autoIncrement" json:"position"`
	Address   string    `gorm:"column:address;type:varchar(42);not null;uniqueIndex" json:"address"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (MultiSigEntry) TableName() string { return "multisig_airlines" }

// FundedEntry is one position in the list of funded airlines.
type FundedEntry struct {
	Position  uint64    `gorm:"column:position;primaryKey;autoIncrement" json:"position"`
	Address   string    `gorm:"column:address;type:varchar(42);not null;uniqueIndex" json:"address"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (FundedEntry) TableName() string { return "funded_airlines" }

// AirlineFunds is the cumulative funded amount of an airline, in gwei.
type AirlineFunds struct {
	Airline   string    `gorm:"column:airline;type:varchar(42);primaryKey" json:"airline"`
	Amount    int64     `gorm:"column:amount;not null" json:"amount"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (AirlineFunds) TableName() string { return "airline_funds" }

type Insurance struct {
	Beneficiary string    `gorm:"column:beneficiary;type:varchar(42);primaryKey" json:"beneficiary"`
	Flight      string    `gorm:"column:flight;type:text;not null" json:"flight"`
	Amount      int64     `gorm:"column:amount;not null" json:"amount"`
	Payer       string    `gorm:"column:payer;type:varchar(42)" json:"payer"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Insurance) TableName() string { return "insurances" }

type PendingCredit struct {
	Beneficiary string    `gorm:"column:beneficiary;type:varchar(42);primaryKey" json:"beneficiary"`
	Amount      int64     `gorm:"column:amount;not null" json:"amount"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (PendingCredit) TableName() string { return "pending_credits" }

// Flight status codes reported for a registered flight.
const (
	StatusUnknown       uint8 = 0
	StatusOnTime        uint8 = 10
	StatusLateAirline   uint8 = 20
	StatusLateWeather   uint8 = 30
	StatusLateTechnical uint8 = 40
	StatusLateOther     uint8 = 50
)

type Flight struct {
	Key        string    `gorm:"column:flight_key;type:varchar(66);primaryKey" json:"key"`
	Registered bool      `gorm:"column:registered;not null" json:"registered"`
	StatusCode uint8     `gorm:"column:status_code;not null" json:"status_code"`
	Timestamp  uint64    `gorm:"column:timestamp;not null" json:"timestamp"`
	Airline    string    `gorm:"column:airline;type:varchar(42);not null;index" json:"airline"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Flight) TableName() string { return "flights" }

// Models lists every table owned by the store.
func Models() []any {
	return []any{
		&ContractState{},
		&Airline{},
		&AuthorizedCaller{},
		&MultiSigEntry{},
		&FundedEntry{},
		&AirlineFunds{},
		&Insurance{},
		&PendingCredit{},
		&Flight{},
	}
}
