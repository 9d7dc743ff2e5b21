package escrow

// RequiredVotes returns the strict majority of the original guarantor count.
func RequiredVotes(guarantors int) int {
	return guarantors/2 + 1
}

// MajorityReached reports whether yes ballots meet the requirement.
func MajorityReached(yes, required int) bool {
	return yes >= required
}

// MajorityForeclosed reports whether yes can no longer reach the requirement
// even if every remaining guarantor votes yes.
func MajorityForeclosed(no, guarantors, required int) bool {
	return no > guarantors-required
}
