package model

// Status values. Not every resource uses every value: accounts move between
// active, suspended and deleted; DNS records and packages may be inactive;
// backups and scans run from pending or running to completed or failed;
// certificates expire.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
	StatusExpired   = "expired"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
