package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"dbd/internal/models"
	"dbd/internal/structures"
)

const defaultAnchorTimeout = 5 * time.Second

// AnchorClientInterface uploads chain records to the external
// content-addressable store. Both calls are best-effort: a nil ref with
// a nil error means anchoring is disabled, a non-nil error is logged by
// the batcher and never surfaced to writers.
type AnchorClientInterface interface {
	AnchorLink(ctx context.Context, tenant string, link *models.ChainLink, serverKey []byte) (*models.AnchorRef, error)
	AnchorSummary(ctx context.Context, tenant string, summary *models.BatchSummary) (*models.AnchorRef, error)
}

// linkRecord is the self-describing upload format: post payload plus
// identity and chain-position blocks, so the record can be verified
// without access to this daemon.
type linkRecord struct {
	Kind      string       `json:"kind"`
	Tenant    string       `json:"tenant"`
	Post      *models.Post `json:"post"`
	Author    string       `json:"author"`
	ServerKey string       `json:"server_key,omitempty"`
	Signature string       `json:"signature,omitempty"`
	Index     uint64       `json:"index"`
	Hash      string       `json:"hash"`
	PrevHash  string       `json:"prev_hash"`
}

type summaryRecord struct {
	Kind    string               `json:"kind"`
	Tenant  string               `json:"tenant"`
	Summary *models.BatchSummary `json:"summary"`
}

type anchorResponse struct {
	ContentId string `json:"content_id"`
	Url       string `json:"url"`
}

type HTTPAnchorClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewAnchorClient(conf *structures.Config) AnchorClientInterface {
	if conf.Chain.AnchorURL == "" {
		return &noopAnchorClient{}
	}
	timeout := conf.Chain.AnchorTimeout
	if timeout <= 0 {
		timeout = defaultAnchorTimeout
	}
	return &HTTPAnchorClient{
		baseURL: conf.Chain.AnchorURL,
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (c *HTTPAnchorClient) AnchorLink(ctx context.Context, tenant string, link *models.ChainLink, serverKey []byte) (*models.AnchorRef, error) {
	record := &linkRecord{
		Kind:      "chain-link",
		Tenant:    tenant,
		Post:      link.Post,
		Author:    link.Post.Author,
		ServerKey: hex.EncodeToString(serverKey),
		Signature: hex.EncodeToString(link.ServerSignature),
		Index:     link.Index,
		Hash:      link.Hash,
		PrevHash:  link.PreviousHash,
	}
	return c.upload(ctx, record)
}

func (c *HTTPAnchorClient) AnchorSummary(ctx context.Context, tenant string, summary *models.BatchSummary) (*models.AnchorRef, error) {
	return c.upload(ctx, &summaryRecord{Kind: "batch-summary", Tenant: tenant, Summary: summary})
}

func (c *HTTPAnchorClient) upload(ctx context.Context, record interface{}) (*models.AnchorRef, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode anchor record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("content store returned status %d", resp.StatusCode)
	}

	var ar anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode content store response: %w", err)
	}
	if ar.ContentId == "" {
		return nil, fmt.Errorf("content store returned empty content id")
	}
	return &models.AnchorRef{ContentId: ar.ContentId, Url: ar.Url}, nil
}

type noopAnchorClient struct{}

func (n *noopAnchorClient) AnchorLink(_ context.Context, _ string, _ *models.ChainLink, _ []byte) (*models.AnchorRef, error) {
	return nil, nil
}

func (n *noopAnchorClient) AnchorSummary(_ context.Context, _ string, _ *models.BatchSummary) (*models.AnchorRef, error) {
	return nil, nil
}
