package types

import "github.com/ethereum/go-ethereum/common"

// DistributionSummary describes a stored distribution without its records.
type DistributionSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Root        common.Hash `json:"root"`
	LeafCount   uint64      `json:"leafCount"`
	RecordCount int         `json:"recordCount"`
	CreatedAt   int64       `json:"createdAt"`
}

// PublishRequest is the body of POST /distributions.
type PublishRequest struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// ProofResponse is returned by GET /distributions/{root}/proof.
type ProofResponse struct {
	Root   common.Hash   `json:"root"`
	Index  int           `json:"index"`
	Record Record        `json:"record"`
	Leaf   common.Hash   `json:"leaf"`
	Proof  []common.Hash `json:"proof"`
}

// IndexRequest is the body of POST /distributions/{root}/index.
type IndexRequest struct {
	Record Record `json:"record"`
}

// IndexResponse carries the position of a record in a distribution.
type IndexResponse struct {
	Index int `json:"index"`
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Root   common.Hash   `json:"root"`
	Index  uint64        `json:"index"`
	Record Record        `json:"record"`
	Proof  []common.Hash `json:"proof"`
}

// VerifyResponse is the result of POST /verify.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}
