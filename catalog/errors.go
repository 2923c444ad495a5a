package catalog

import "errors"

// ErrNoSuchTable is returned by lookups for tables that are not (or no
// longer) in the catalog.
var ErrNoSuchTable = errors.New("no such table")
