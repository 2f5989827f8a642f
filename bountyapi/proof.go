package bountyapi

import "time"

// RunProof is the digest set a sealed report signs. Every field can be
// recomputed from the decision report and the nonces carried here.
type RunProof struct {
	RunID        string    `cbor:"run_id" json:"run_id"`
	TaskID       string    `cbor:"task_id" json:"task_id"`
	TaskHash     string    `cbor:"task_hash" json:"task_hash"` // covers the budget scores were computed against
	TaskNonce    string    `cbor:"task_nonce" json:"task_nonce"`
	WinnerID     string    `cbor:"winner_id" json:"winner_id"`
	WinnerTotal  float64   `cbor:"winner_total" json:"winner_total"`
	Rounds       int       `cbor:"rounds" json:"rounds"`
	BidHashes    []string  `cbor:"bid_hashes" json:"bid_hashes"` // final bids, report order
	BidHashNonce string    `cbor:"bid_hash_nonce" json:"bid_hash_nonce"`
	WeightsHash  string    `cbor:"weights_hash" json:"weights_hash"`
	WeightsNonce string    `cbor:"weights_nonce" json:"weights_nonce"`
	EventsHash   string    `cbor:"events_hash" json:"events_hash"`
	EventCount   int       `cbor:"event_count" json:"event_count"`
	KeyAlgorithm string    `cbor:"key_algorithm" json:"key_algorithm"`
	Timestamp    time.Time `cbor:"timestamp" json:"timestamp"`
}
