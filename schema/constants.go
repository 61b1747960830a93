package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for snapshot storage.
	DatabaseBackend string

	// SortField represents the column a rollup is ordered by.
	SortField string

	// SortOrder represents the direction of a rollup ordering.
	SortOrder string

	// RunState represents the lifecycle of one collection run.
	RunState string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All sort fields supported.
const (
	SortByName    SortField = "name"
	SortByCommits SortField = "commits" // default
	SortByLines   SortField = "lines"
	SortByRepos   SortField = "repos"
	SortByPRs     SortField = "prs"
)

// All sort orders supported.
const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc" // default
)

// All run states of the collection orchestrator.
const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// AnonymousAuthor is the username recorded when an activity record has no identifiable author.
const AnonymousAuthor = "anonymous"

// ValidOutputModes lists all valid output modes for reports.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSortFields lists all valid sort fields.
var ValidSortFields = map[SortField]struct{}{
	SortByName:    {},
	SortByCommits: {},
	SortByLines:   {},
	SortByRepos:   {},
	SortByPRs:     {},
}

// ValidSortOrders lists all valid sort orders.
var ValidSortOrders = map[SortOrder]struct{}{
	Ascending:  {},
	Descending: {},
}

// Toggle returns the opposite order.
func (o SortOrder) Toggle() SortOrder {
	if o == Ascending {
		return Descending
	}
	return Ascending
}
