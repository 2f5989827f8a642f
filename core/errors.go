package core

import "errors"

var (
	ErrInvalidBudget    = errors.New("budget_usd must be a positive finite number")
	ErrInvalidBid       = errors.New("invalid bid")
	ErrDuplicateBidder  = errors.New("duplicate freelancer_id in bid set")
	ErrMissingWeight    = errors.New("missing weight")
	ErrInvalidWeight    = errors.New("invalid weight")
	ErrNoBids           = errors.New("no bids to select a winner from")
	ErrInvalidRounds    = errors.New("rounds must be >= 0")
	ErrUnknownEventType = errors.New("unknown event type")
)
