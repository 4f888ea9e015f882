package domain

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrRecipientRejected   = errors.New("recipient_rejected")
	ErrBalanceOverflow     = errors.New("balance_overflow")
	ErrUnbalancedTransfer  = errors.New("unbalanced_transfer")
)
