package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/pkg/db/pagination"
	"gorm.io/gorm"
)

// Call identifies who invokes an operation and the value attached to it, in gwei.
type Call struct {
	From  common.Address
	Value int64
}

// Settings carries the identities fixed when the contract is deployed.
type Settings struct {
	Owner            common.Address
	Treasury         common.Address
	Controller       common.Address
	FirstAirline     common.Address
	FirstAirlineName string
}

// ValueTransfer moves value between accounts inside the caller's transaction
// and fails atomically on insufficient balance or recipient rejection.
type ValueTransfer interface {
	Transfer(ctx context.Context, tx *gorm.DB, from, to common.Address, amount int64, memo string) error
}

type InsuranceView struct {
	Beneficiary common.Address `json:"beneficiary"`
	Flight      string         `json:"flight"`
	Amount      int64          `json:"amount"`
}

type FlightView struct {
	Key        common.Hash    `json:"key"`
	Registered bool           `json:"registered"`
	StatusCode uint8          `json:"status_code"`
	Timestamp  uint64         `json:"timestamp"`
	Airline    common.Address `json:"airline"`
}

type AirlineView struct {
	Address      common.Address `json:"address"`
	Name         string         `json:"name"`
	IsRegistered bool           `json:"is_registered"`
	IsFunded     bool           `json:"is_funded"`
	Funds        int64          `json:"funds"`
}

type ListEventsRequest struct {
	pagination.Pagination
	Name string
}

type ListEventsResponse struct {
	pagination.PageInfo
	Events []events.Event `json:"events"`
}

// Service is the ledger state store. Every mutating operation is atomic and
// requires the operational flag unless documented otherwise.
type Service interface {
	// Bootstrap creates the contract state on first start. It is idempotent.
	Bootstrap(ctx context.Context) error

	IsOperational(ctx context.Context) (bool, error)
	// SetOperatingStatus is owner-only and allowed while not operational.
	SetOperatingStatus(ctx context.Context, call Call, mode bool) error

	AuthorizeCaller(ctx context.Context, call Call, addr common.Address) error
	// DeauthorizeCaller succeeds for absent entries and still emits the event.
	DeauthorizeCaller(ctx context.Context, call Call, addr common.Address) error
	IsAuthorizedCaller(ctx context.Context, addr common.Address) (bool, error)

	IsAirline(ctx context.Context, addr common.Address) (bool, error)
	GetAirline(ctx context.Context, addr common.Address) (AirlineView, error)
	RegisterAirline(ctx context.Context, call Call, addr common.Address, name string) (bool, error)
	MultiSigAirlines(ctx context.Context) ([]common.Address, error)

	// Fund treats call.Value as authoritative; a non-zero declared amount must match it.
	Fund(ctx context.Context, call Call, airline common.Address, declared int64) error
	CheckFunds(ctx context.Context, airline common.Address) (int64, error)
	GetNumOfFundedAirlines(ctx context.Context) ([]common.Address, error)
	// ResetAirlineFunding is owner-only and restarts the airline's funding cycle.
	ResetAirlineFunding(ctx context.Context, call Call, airline common.Address) error

	Buy(ctx context.Context, call Call, beneficiary common.Address, flight string) error
	InsuranceQuery(ctx context.Context, beneficiary common.Address) (InsuranceView, error)
	CreditInsurees(ctx context.Context, call Call, beneficiary common.Address) (int64, error)
	PendingCreditQuery(ctx context.Context, beneficiary common.Address) (int64, error)
	// Pay zeroes the caller's pending credit before transferring it.
	Pay(ctx context.Context, call Call) (int64, error)

	RegisterFlight(ctx context.Context, call Call, statusCode uint8, timestamp uint64, airline common.Address, key common.Hash) error
	IsFlightRegistered(ctx context.Context, key common.Hash) (bool, error)
	GetRegisteredFlight(ctx context.Context, key common.Hash) (FlightView, error)
	SetFlightStatus(ctx context.Context, call Call, key common.Hash, statusCode uint8) (uint8, error)
	DeriveFlightKey(airline common.Address, flight string, timestamp uint64) common.Hash

	ListEvents(ctx context.Context, req ListEventsRequest) (ListEventsResponse, error)
}

type Repository interface {
	GetState(ctx context.Context, db *gorm.DB) (*ContractState, error)
	CreateState(ctx context.Context, db *gorm.DB, state *ContractState) error
	UpdateOperational(ctx context.Context, db *gorm.DB, mode bool) error

	IsAuthorized(ctx context.Context, db *gorm.DB, address string) (bool, error)
	InsertAuthorized(ctx context.Context, db *gorm.DB, caller *AuthorizedCaller) error
	DeleteAuthorized(ctx context.Context, db *gorm.DB, address string) error

	// GetAirline returns nil when the airline has no record.
	GetAirline(ctx context.Context, db *gorm.DB, address string) (*Airline, error)
	SaveAirline(ctx context.Context, db *gorm.DB, airline *Airline) error
	AppendMultiSig(ctx context.Context, db *gorm.DB, address string) error
	ListMultiSig(ctx context.Context, db *gorm.DB) ([]string, error)
	CountMultiSig(ctx context.Context, db *gorm.DB) (int64, error)

	GetFunds(ctx context.Context, db *gorm.DB, airline string) (int64, error)
	AddFunds(ctx context.Context, db *gorm.DB, airline string, amount int64) error
	ClearFunds(ctx context.Context, db *gorm.DB, airline string) error
	AppendFunded(ctx context.Context, db *gorm.DB, airline string) error
	RemoveFunded(ctx context.Context, db *gorm.DB, airline string) error
	ListFunded(ctx context.Context, db *gorm.DB) ([]string, error)

	// GetInsurance returns nil when the beneficiary holds no insurance.
	GetInsurance(ctx context.Context, db *gorm.DB, beneficiary string) (*Insurance, error)
	SaveInsurance(ctx context.Context, db *gorm.DB, insurance *Insurance) error
	GetCredit(ctx context.Context, db *gorm.DB, beneficiary string) (int64, error)
	SaveCredit(ctx context.Context, db *gorm.DB, beneficiary string, amount int64) error

	// GetFlight returns nil when the key is unknown.
	GetFlight(ctx context.Context, db *gorm.DB, key string) (*Flight, error)
	SaveFlight(ctx context.Context, db *gorm.DB, flight *Flight) error
}
