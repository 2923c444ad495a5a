package replay

import (
	"fmt"

	"github.com/tidemarkdb/tidemark/mutation"
)

// UnknownSchemaVersionError marks an entry written under a schema
// version this process has never seen a column mapping for. The entry
// cannot be decoded and counts as invalid.
type UnknownSchemaVersionError mutation.SchemaVersion

func (e UnknownSchemaVersionError) Error() string {
	return fmt.Sprintf("unknown schema version %s", mutation.SchemaVersion(e))
}
