package constants

// Backend names the storage engine that holds a session's dataset.
// Both backends keep data in memory only and discard it when the session ends.
type Backend string

const (
	// BackendMemory stores points in a Go slice.
	BackendMemory Backend = "memory"

	// BackendSQLite stores points in a private in-memory SQLite database,
	// which allows ad-hoc SQL inspection while the session is alive.
	BackendSQLite Backend = "sqlite"
)

// Valid returns true if the backend is a recognized value.
func (b Backend) Valid() bool {
	switch b {
	case BackendMemory, BackendSQLite:
		return true
	}
	return false
}

// String returns the string representation of the backend.
func (b Backend) String() string {
	return string(b)
}
