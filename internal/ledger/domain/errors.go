package domain

import (
	"errors"
	"math"

	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotOperational    = errors.New("not_operational")
	ErrInvalidAddress    = errors.New("invalid_address")
	ErrAlreadyRegistered = errors.New("already_registered")
	ErrAlreadyAuthorized = errors.New("already_authorized")
	ErrAlreadyFunded     = errors.New("already_funded")
	ErrNoSuchInsurance   = errors.New("no_such_insurance")
	ErrNotFunded         = errors.New("not_funded")
	ErrZeroValue         = errors.New("zero_value")
	ErrZeroBalance       = errors.New("zero_balance")
	ErrZeroCredit        = errors.New("zero_credit")
	ErrWrongAmount       = errors.New("wrong_amount")

	ErrNoSuchFlight     = errors.New("no_such_flight")
	ErrNoSuchAirline    = errors.New("no_such_airline")
	ErrAmountOverflow   = errors.New("amount_overflow")
	ErrNotInitialized   = errors.New("contract_not_initialized")
	ErrInvalidTimestamp = errors.New("invalid_timestamp")

	ErrInvalidPageToken = errors.New("invalid_page_token")
)

var reasons = map[error]string{
	ErrUnauthorized:      "caller is not permitted to perform this operation",
	ErrNotOperational:    "contract is currently not operational",
	ErrInvalidAddress:    "address must not be the zero address",
	ErrAlreadyRegistered: "airline is already registered",
	ErrAlreadyAuthorized: "caller is already authorized",
	ErrAlreadyFunded:     "airline is already funded",
	ErrNoSuchInsurance:   "no insurance exists for this beneficiary",
	ErrNotFunded:         "airline has not been funded",
	ErrZeroValue:         "attached value must be greater than zero",
	ErrZeroBalance:       "insured amount is zero",
	ErrZeroCredit:        "no pending credit to pay out",
	ErrWrongAmount:       "funding amount does not match the required funding unit",
	ErrNoSuchFlight:      "flight is not registered",
	ErrNoSuchAirline:     "airline does not exist",
	ErrAmountOverflow:    "amount is too large",
	ErrNotInitialized:    "contract has not been bootstrapped",
	ErrInvalidPageToken:  "page token is malformed",
	ErrInvalidTimestamp:  "flight timestamp exceeds the storable range",
}

// MaxFlightTimestamp is the largest flight timestamp the store persists.
const MaxFlightTimestamp uint64 = math.MaxInt64

var walletRejections = []error{
	walletdomain.ErrInvalidAmount,
	walletdomain.ErrInvalidAccount,
	walletdomain.ErrInsufficientBalance,
	walletdomain.ErrRecipientRejected,
	walletdomain.ErrBalanceOverflow,
}

// Reason returns the human-readable reason for a rejected operation.
func Reason(err error) string {
	for known, reason := range reasons {
		if errors.Is(err, known) {
			return reason
		}
	}
	switch {
	case errors.Is(err, walletdomain.ErrInsufficientBalance):
		return "insufficient balance for value transfer"
	case errors.Is(err, walletdomain.ErrRecipientRejected):
		return "recipient rejected the value transfer"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsRejection reports whether err is a precondition violation rather than an infrastructure failure.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for known := range reasons {
		if errors.Is(err, known) {
			return true
		}
	}
	for _, known := range walletRejections {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// Code returns the machine-readable code of a rejection, or "internal".
func Code(err error) string {
	for known := range reasons {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	for _, known := range walletRejections {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal"
}
