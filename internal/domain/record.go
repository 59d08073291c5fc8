package domain

import "time"

// MemoryRecord is an immutable stored unit of content. The id and
// timestamp are assigned at creation and never change; the layer
// determines which physical index holds the record.
type MemoryRecord struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Layer     Layer     `json:"layer"`
}
