package constants

// ValidationStatus is the outcome of validating one normalized record.
type ValidationStatus string

// Stable values (store these exact strings in outputs and DB).
const (
	StatusPassed  ValidationStatus = "PASSED"  // no critical violations, score at or above threshold
	StatusPartial ValidationStatus = "PARTIAL" // no critical violations, score below threshold
	StatusFailed  ValidationStatus = "FAILED"  // at least one critical violation
)

// BatchStatus is the lifecycle state for rows in batches.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "RUNNING"
	BatchStatusCompleted BatchStatus = "COMPLETED"
	BatchStatusAborted   BatchStatus = "ABORTED"
)

// FailureKind classifies per-document failures recorded alongside a record.
type FailureKind string

const (
	FailureText          FailureKind = "TEXT"          // PDF text layer missing or unreadable
	FailureExtraction    FailureKind = "EXTRACTION"    // matcher panic or extraction timeout
	FailureNormalization FailureKind = "NORMALIZATION" // a single field could not be parsed
)

// Severity grades a validation violation.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityNonCritical Severity = "non_critical"
)
