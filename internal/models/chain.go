package models

// GenesisHash is the previousHash of the first link of every fresh chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// AnchorRef points at a record uploaded to the content-addressable store.
type AnchorRef struct {
	ContentId string `json:"content_id"`
	Url       string `json:"url,omitempty"`
}

// ChainLink is one hash-linked record covering a single accepted post.
// Hash = BLAKE3(canonical(post) || PreviousHash), hex encoded.
type ChainLink struct {
	Post            *Post      `json:"post"`
	Hash            string     `json:"hash"`
	PreviousHash    string     `json:"previous_hash"`
	Index           uint64     `json:"index"`
	UserSignature   []byte     `json:"user_signature,omitempty"`
	ServerSignature []byte     `json:"server_signature,omitempty"`
	AnchorRef       *AnchorRef `json:"anchor_ref,omitempty"`
}

// ChainState is the persisted per-tenant chain record. Mirrored to disk
// after every mutation so a restart resumes the exact same chain.
type ChainState struct {
	Chain       []*ChainLink `json:"chain"`
	LastHash    string       `json:"last_hash"`
	LastFlushAt int64        `json:"last_flush_at"`
}

type BatchEntry struct {
	Id        uint64     `json:"id"`
	Hash      string     `json:"hash"`
	AnchorRef *AnchorRef `json:"anchor_ref,omitempty"`
	Author    string     `json:"author"`
	Timestamp int64      `json:"timestamp"`
}

// BatchSummary seals a full chain. It carries link metadata only,
// never post bodies.
type BatchSummary struct {
	Entries   []*BatchEntry `json:"entries"`
	ChainRoot string        `json:"chain_root"`
	Count     uint32        `json:"count"`
	Timestamp int64         `json:"timestamp"`
}
