package tempo

import "github.com/xraph/tempo/id"

// ID is the identifier type for generated events, workers and dispatchers.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
