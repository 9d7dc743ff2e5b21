// Package escrow implements the challenge escrow state machine.
//
// Every function here is pure: it validates a request against a challenge
// record and the supplied time, mutates the record it was given, and returns
// an Outcome describing the state change and any funds that must leave
// custody. Persistence, locking and token movements belong to the caller,
// which passes a clone and commits it only once the Outcome's disbursement
// has been executed.
//
// Transitions:
//
//	ACTIVE              -> FAILED_PENDING_VOTE  owner reports after end time
//	ACTIVE              -> COMPLETED            guarantor, or owner after end time
//	FAILED_PENDING_VOTE -> REMEDIATION_ACTIVE   yes majority (ballot or deadline)
//	FAILED_PENDING_VOTE -> FAILED_FINAL         majority foreclosed or deadline without it
//	REMEDIATION_ACTIVE  -> COMPLETED            guarantor, or owner after end time
//	REMEDIATION_ACTIVE  -> FAILED_FINAL         remediation deadline passed
package escrow
