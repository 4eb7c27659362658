package models

// IndexEntry is the per-post metadata row kept in the tenant index.
// Ordered by Id; enough to list and filter without opening record files.
type IndexEntry struct {
	Id        uint64 `json:"id"`
	Author    string `json:"author"`
	Timestamp int64  `json:"timestamp"`
	Channel   string `json:"channel,omitempty"`
}

// Index is the per-tenant index record. NextId is the next id to hand
// out, strictly increasing, shared by posts and comments.
type Index struct {
	NextId  uint64        `json:"next_id"`
	Entries []*IndexEntry `json:"entries"`
}

// LegacyStore is the oldest persistence format: one monolithic JSON
// blob per tenant holding every post. Migrated once, on first index read.
type LegacyStore struct {
	Posts  []*Post `json:"posts"`
	NextId uint64  `json:"nextId"`
}
