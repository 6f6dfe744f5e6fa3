package models

// Extraction is the persisted audit record of one extraction pass: the raw
// structured output the model returned, with the message range it covered.
// Append-only, distinct from the merged knowledge on the session itself.
type Extraction struct {
	ID                int64            `db:"id" json:"id"`
	SessionID         string           `db:"session_id" json:"session_id"`
	Data              *KnowledgeRecord `db:"extraction_data" json:"extraction_data"`
	MessageRangeStart int              `db:"message_range_start" json:"message_range_start"`
	MessageRangeEnd   int              `db:"message_range_end" json:"message_range_end"`
	CreatedAt         string           `db:"created_at" json:"created_at"`
	CreatedAtEpoch    int64            `db:"created_at_epoch" json:"created_at_epoch"`
}
