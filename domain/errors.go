package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidAddress      = errors.New("Invalid address")
	ErrInvalidSignature    = errors.New("Invalid signature")
	ErrInvalidNonce        = errors.New("invalid or expired nonce")
	ErrInvalidNumberFormat = errors.New("invalid number format")

	// ledger guards
	ErrNotOwner                   = errors.New("caller lacks the required role")
	ErrInvalidStateForOperation   = errors.New("position is not in the required state")
	ErrDeadlineNotReached         = errors.New("deadline has not been reached")
	ErrDeadlinePassed             = errors.New("deadline has passed")
	ErrIncorrectPayment           = errors.New("payment amount is incorrect")
	ErrBidTooLow                  = errors.New("bid amount is too low")
	ErrZeroPayment                = errors.New("payment amount must be positive")
	ErrInsufficientAvailableUnits = errors.New("not enough available units")
	ErrDuplicateItem              = errors.New("item already registered")

	// governance guards
	ErrAlreadyApproved        = errors.New("proposal already approved by caller")
	ErrAlreadyExecuted        = errors.New("proposal already executed")
	ErrQuorumNotMet           = errors.New("proposal has not reached quorum")
	ErrTooManyActiveProposals = errors.New("too many active proposals for owner")
	ErrUnknownProposal        = errors.New("unknown proposal")
	ErrInvalidQuorum          = errors.New("quorum must be positive and not exceed owner count")

	// migration cutover guards
	ErrNotRetired     = errors.New("ledger is not retired")
	ErrAlreadyRetired = errors.New("ledger is retired")

	// query surface
	ErrInvalidPage = errors.New("invalid page number")
)
