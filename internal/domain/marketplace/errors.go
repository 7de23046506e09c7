package marketplace

import (
	"errors"
	"fmt"
)

// Sentinel kinds for allocation validation. These allow errors.Is from callers.
var (
	ErrBudgetExceeded     = errors.New("budget exceeded")
	ErrNegativeAllocation = errors.New("negative allocation")
)

// BudgetError reports by how much a submission overshoots the budget so the
// client can correct and resubmit without guessing.
type BudgetError struct {
	ParticipantID string
	Proposed      int
	Budget        int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget exceeded: participant %s proposed %d coins, budget is %d",
		e.ParticipantID, e.Proposed, e.Budget)
}

func (e *BudgetError) Unwrap() error { return ErrBudgetExceeded }

// NegativeError names the idea that carried a negative coin value.
type NegativeError struct {
	ParticipantID string
	IdeaID        string
	Coins         int
}

func (e *NegativeError) Error() string {
	return fmt.Sprintf("negative allocation: participant %s staked %d coins on idea %s",
		e.ParticipantID, e.Coins, e.IdeaID)
}

func (e *NegativeError) Unwrap() error { return ErrNegativeAllocation }
