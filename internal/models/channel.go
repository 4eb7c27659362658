package models

// Channel is a named sub-board. An empty AccessList means the channel
// is readable by anyone the tenant admits at Reader level or above.
type Channel struct {
	Name       string   `json:"name"`
	AccessList []string `json:"access_list,omitempty"`
}

// ChannelConfig is the persisted per-tenant channel record.
type ChannelConfig struct {
	Channels []*Channel `json:"channels"`
}
