package domain

// ChallengeQuery represents a lookup of a challenge by reference
type ChallengeQuery struct {
	// Reference is a full 0x-prefixed id or a unique hex prefix of one
	Reference string
	// Interactive allows a picker when the prefix is ambiguous
	Interactive bool
}
