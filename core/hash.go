package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ComputeBidHash computes the digest a sealed report commits to for one bid.
// This is used by both the seal (to generate hashes) and validation (to verify hashes).
//
// Formula: SHA256(freelancer_id + "|" + sprintf("%.6f", price) + "|" + eta + "|" + sprintf("%.6f", confidence)
// + "|" + sprintf("%.6f", portfolio_score) + "|" + join(risk_flags, ",") + "|" + nonce)
//
// Every field that feeds the score is covered. Notes are not.
// Floats are formatted to exactly 6 decimal places so the hash does not depend
// on how the value is represented in memory.
func ComputeBidHash(bid Bid, nonce string) string {
	data := fmt.Sprintf("%s|%.6f|%d|%.6f|%.6f|%s|%s",
		bid.FreelancerID, bid.PriceUSD, bid.ETADays, bid.Confidence, bid.PortfolioScore,
		strings.Join(bid.RiskFlags, ","), nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeTaskHash computes the digest of the task a run was scored against.
//
// Formula: SHA256(nonce + "|" + id + "|" + sprintf("%.6f", budget) + "|" + title + "|" + join(criteria, "\n"))
func ComputeTaskHash(task Task, nonce string) string {
	data := fmt.Sprintf("%s|%s|%.6f|%s|%s",
		nonce, task.ID, task.BudgetUSD, task.Title, strings.Join(task.AcceptanceCriteria, "\n"))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeWeightsHash computes the digest of the scoring weights.
//
// Formula: SHA256(nonce + "|" + sorted_key_value_pairs)
// where sorted_key_value_pairs = "eta:w|price:w|quality:w|risk:w" (sorted by key)
func ComputeWeightsHash(w Weights, nonce string) string {
	data := nonce

	m := w.AsMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		data += fmt.Sprintf("|%s:%.6f", k, m[k])
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeEventsHash chains the event trail into a single digest.
// Timestamps and run ids are excluded, so two runs with the same inputs and
// seed share a trail hash.
//
// Formula: h_0 = "", h_i = SHA256(h_{i-1} + "|" + seq + "|" + type + "|" + round + "|" + compact(data))
//
// Payloads are compacted first so a pretty-printed report hashes the same.
func ComputeEventsHash(events []Event) string {
	prev := ""
	for _, ev := range events {
		data := fmt.Sprintf("%s|%d|%s|%d|%s", prev, ev.Seq, ev.Type, ev.Round, compactJSON(ev.Data))
		prev = fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
	}
	return prev
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
