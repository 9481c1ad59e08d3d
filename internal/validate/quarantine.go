package validate

import (
	"encoding/json"
	"fmt"

	"github.com/pable/hltv-harvester/internal/model"
)

// BuildQuarantineEntry constructs the audit record for a hard-rejected
// input: the entity type, the originating ids when available, a JSON dump
// of the rejected input, and the verbatim validation error.
func BuildQuarantineEntry(entityType string, matchID *int64, mapNumber *int, input any, validationErr error) model.QuarantineEntry {
	dump, err := json.Marshal(input)
	if err != nil {
		dump = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}
	return model.QuarantineEntry{
		EntityType:      entityType,
		MatchID:         matchID,
		MapNumber:       mapNumber,
		InputJSON:       string(dump),
		ValidationError: validationErr.Error(),
	}
}
