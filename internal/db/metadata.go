package db

import (
	"database/sql"
	"encoding/json"
	"log"
)

// Metadata encodes log metadata fields as a JSON object.
func Metadata(fields map[string]interface{}) sql.NullString {
	data, err := json.Marshal(fields)
	if err != nil {
		log.Printf("[DB] Failed to encode log metadata: %v", err)
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}
