package constants

// ReviewStatus is the canonical review state for stored expense records.
type ReviewStatus string

// Stable values (store these exact strings in DB).
const (
	ReviewStatusClean   ReviewStatus = "CLEAN"   // no warnings, confidence above threshold
	ReviewStatusFlagged ReviewStatus = "FLAGGED" // warnings present or confidence too low
)
