package models

// Post is the canonical stored record for a single board entry.
// Id is tenant-scoped, assigned by the store, strictly increasing and never reused.
// An empty Channel means the implicit default channel.
type Post struct {
	Id         uint64     `json:"id" cbor:"1,keyasint"`
	Text       string     `json:"text" cbor:"2,keyasint"`
	Image      string     `json:"image,omitempty" cbor:"3,keyasint,omitempty"`
	Author     string     `json:"author" cbor:"4,keyasint"`
	AuthorName string     `json:"author_name,omitempty" cbor:"5,keyasint,omitempty"`
	Timestamp  int64      `json:"timestamp" cbor:"6,keyasint"`
	Channel    string     `json:"channel,omitempty" cbor:"7,keyasint,omitempty"`
	Comments   []*Comment `json:"comments" cbor:"8,keyasint"`
	EditedAt   int64      `json:"edited_at,omitempty" cbor:"9,keyasint,omitempty"`
}

// Comment ids come from the same tenant-scoped counter as post ids,
// so they are unique within the tenant, not only within the post.
type Comment struct {
	Id         uint64 `json:"id" cbor:"1,keyasint"`
	Text       string `json:"text" cbor:"2,keyasint"`
	Author     string `json:"author" cbor:"3,keyasint"`
	AuthorName string `json:"author_name,omitempty" cbor:"4,keyasint,omitempty"`
	Timestamp  int64  `json:"timestamp" cbor:"5,keyasint"`
}
