package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Guard is a precondition evaluated inside the operation's transaction
// before the operation body runs.
type Guard func(ctx context.Context, tx *gorm.DB) error

// Check runs guards in order and returns the first violation.
func Check(ctx context.Context, tx *gorm.DB, guards ...Guard) error {
	for _, guard := range guards {
		if err := guard(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// NonZeroAddress rejects the zero address.
func NonZeroAddress(addr common.Address) Guard {
	return func(context.Context, *gorm.DB) error {
		if addr == (common.Address{}) {
			return ErrInvalidAddress
		}
		return nil
	}
}

// PositiveValue rejects calls without attached value.
func PositiveValue(value int64) Guard {
	return func(context.Context, *gorm.DB) error {
		if value <= 0 {
			return ErrZeroValue
		}
		return nil
	}
}
