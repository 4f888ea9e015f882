// Package events records contract events in a transactional outbox and fans
// them out to live subscribers once the owning transaction commits.
package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Name string

const (
	ContractAuthorized     Name = "ContractAuthorized"
	ContractDeauthorized   Name = "ContractDeauthorized"
	InsuranceBought        Name = "InsuranceBought"
	AirlineRegistered      Name = "AirlineRegistered"
	CreditIssuedToInsuree  Name = "CreditIssuedToInsuree"
	InsurancePayoutPaid    Name = "InsurancePayoutPaid"
	FundedByAirline        Name = "FundedByAirline"
	FlightRegistered       Name = "FlightRegistered"
	FlightStatusUpdated    Name = "FlightStatusUpdated"
	OperatingStatusChanged Name = "OperatingStatusChanged"
	AirlineFundingReset    Name = "AirlineFundingReset"
)

var knownNames = map[Name]struct{}{
	ContractAuthorized:     {},
	ContractDeauthorized:   {},
	InsuranceBought:        {},
	AirlineRegistered:      {},
	CreditIssuedToInsuree:  {},
	InsurancePayoutPaid:    {},
	FundedByAirline:        {},
	FlightRegistered:       {},
	FlightStatusUpdated:    {},
	OperatingStatusChanged: {},
	AirlineFundingReset:    {},
}

// Known reports whether n is an event name the contract emits.
func (n Name) Known() bool {
	_, ok := knownNames[n]
	return ok
}

// Event is one committed contract event.
type Event struct {
	Seq           uint64            `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	ID            snowflake.ID      `gorm:"column:id;uniqueIndex;not null" json:"id"`
	Name          Name              `gorm:"column:name;type:text;not null;index" json:"name"`
	Payload       datatypes.JSONMap `gorm:"column:payload" json:"payload"`
	CorrelationID string            `gorm:"column:correlation_id;type:text" json:"correlation_id,omitempty"`
	OccurredAt    time.Time         `gorm:"column:occurred_at;not null" json:"occurred_at"`
}

func (Event) TableName() string { return "contract_events" }

// Attr returns the payload value for key as a string.
func (e Event) Attr(key string) string {
	if e.Payload == nil {
		return ""
	}
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Pending is an event emitted inside a transaction and not yet written.
type Pending struct {
	Name    Name
	Payload map[string]any
}

// Emitter collects events raised while an operation runs.
type Emitter struct {
	pending []Pending
}

func (e *Emitter) Emit(name Name, payload map[string]any) {
	e.pending = append(e.pending, Pending{Name: name, Payload: payload})
}

func (e *Emitter) Pending() []Pending {
	if e == nil {
		return nil
	}
	return e.pending
}

// ListFilter narrows event listings.
type ListFilter struct {
	Name     Name
	AfterSeq uint64
	Limit    int
}
