package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// Sentinel errors for ledger operations
var (
	// ErrNotFound is returned when a requested challenge doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateChallenge is returned when a challenge id is already taken
	ErrDuplicateChallenge = errors.New("challenge already exists")

	// ErrInvalidAmount is returned when a deposit is outside the allowed bounds
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidGuarantors is returned for bad guarantor counts, duplicates or self-reference
	ErrInvalidGuarantors = errors.New("invalid guarantors")

	// ErrInvalidDuration is returned when a challenge duration is not positive
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidAddress is returned when an address cannot be parsed
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidState is returned when a challenge is not in the state an operation requires
	ErrInvalidState = errors.New("invalid state")

	// ErrNotAuthorized is returned when the caller lacks the role for a transition
	ErrNotAuthorized = errors.New("not authorized")

	// ErrChallengeNotEnded is returned when failure is reported before the end time
	ErrChallengeNotEnded = errors.New("challenge has not ended")

	// ErrVotingPeriodEnded is returned for ballots cast after the voting deadline
	ErrVotingPeriodEnded = errors.New("voting period ended")

	// ErrVotingPeriodActive is returned when voting is finalized before its deadline
	ErrVotingPeriodActive = errors.New("voting period still active")

	// ErrRemediationPeriodActive is returned when remediation is finalized before its deadline
	ErrRemediationPeriodActive = errors.New("remediation period still active")

	// ErrAlreadyVoted is returned when a guarantor tries to vote twice
	ErrAlreadyVoted = errors.New("already voted")

	// ErrNotGuarantor is returned when a non-guarantor tries to vote
	ErrNotGuarantor = errors.New("not a guarantor")

	// ErrTransferFailed is returned when the token transfer collaborator rejects a movement
	ErrTransferFailed = errors.New("transfer failed")

	// ErrInvalidFee is returned when a platform fee exceeds the cap
	ErrInvalidFee = errors.New("invalid fee")

	// ErrCustodyShortfall is returned when a disbursement exceeds the funds held in custody
	ErrCustodyShortfall = errors.New("custody shortfall")
)

// StateError reports the states an operation expected next to the one it found.
type StateError struct {
	ID       common.Hash
	Expected []models.State
	Actual   models.State
}

func (e *StateError) Error() string {
	expected := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		expected[i] = string(s)
	}
	return fmt.Sprintf("invalid state: challenge %s is %s, expected %s",
		e.ID.Hex(), e.Actual, strings.Join(expected, " or "))
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NewStateError builds a StateError for the given challenge.
func NewStateError(c *models.Challenge, expected ...models.State) error {
	return &StateError{ID: c.ID, Expected: expected, Actual: c.State}
}

// TransferError wraps a failure reported by the token transfer collaborator.
type TransferError struct {
	Ref   string
	Cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed (%s): %v", e.Ref, e.Cause)
}

func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

// AmbiguousReferenceErr is returned when an id prefix matches several challenges.
type AmbiguousReferenceErr struct {
	Reference string
	Matches   []*models.Challenge
}

func (e AmbiguousReferenceErr) Error() string {
	ids := make([]string, 0, len(e.Matches))
	for _, c := range e.Matches {
		ids = append(ids, fmt.Sprintf("  - %s (%s)", c.ID.Hex(), c.State))
	}
	sort.Strings(ids)

	return fmt.Sprintf("multiple challenges match %q - use a longer prefix:\n%s",
		e.Reference, strings.Join(ids, "\n"))
}

// ErrorClass groups ledger errors by how a caller should react to them.
type ErrorClass string

const (
	ClassValidation    ErrorClass = "validation"
	ClassState         ErrorClass = "state"
	ClassAuthorization ErrorClass = "authorization"
	ClassTemporal      ErrorClass = "temporal"
	ClassResource      ErrorClass = "resource"
	ClassInternal      ErrorClass = "internal"
)

// Classify maps an error onto its ErrorClass.
func Classify(err error) ErrorClass {
	var ambiguous AmbiguousReferenceErr
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ambiguous):
		return ClassValidation
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidGuarantors),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrInvalidFee),
		errors.Is(err, ErrDuplicateChallenge),
		errors.Is(err, ErrNotFound):
		return ClassValidation
	case errors.Is(err, ErrInvalidState):
		return ClassState
	case errors.Is(err, ErrNotAuthorized),
		errors.Is(err, ErrNotGuarantor),
		errors.Is(err, ErrAlreadyVoted):
		return ClassAuthorization
	case errors.Is(err, ErrChallengeNotEnded),
		errors.Is(err, ErrVotingPeriodEnded),
		errors.Is(err, ErrVotingPeriodActive),
		errors.Is(err, ErrRemediationPeriodActive):
		return ClassTemporal
	case errors.Is(err, ErrTransferFailed),
		errors.Is(err, ErrCustodyShortfall):
		return ClassResource
	default:
		return ClassInternal
	}
}
