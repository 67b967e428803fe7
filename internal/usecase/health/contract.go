package health

import "context"

// DBPinger checks history-store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexInfo reports on the loaded similarity index.
type IndexInfo interface {
	Len() int
}
