package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// canonicalRecord returns the deterministic serialization of a record used
// for hashing. Rules:
// - The hash field itself is excluded; previousHash is bound separately as
//   the hashing prefix.
// - Keys are sorted alphabetically (recursively), never map iteration order.
// - Timestamps are normalized to UTC RFC3339Nano.
// - Compact output (no extra whitespace).
func canonicalRecord(r AuditRecord) (string, error) {
	m := map[string]interface{}{
		"id":        r.ID,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
		"action":    r.Action,
		"actor": map[string]interface{}{
			"id":         r.Actor.ID,
			"type":       r.Actor.Type,
			"identifier": r.Actor.Identifier,
		},
		"resource": map[string]interface{}{
			"type": r.Resource.Type,
			"id":   r.Resource.ID,
			"name": r.Resource.Name,
		},
		"metadata": map[string]interface{}{
			"ipAddress":         r.Metadata.IPAddress,
			"userAgent":         r.Metadata.UserAgent,
			"deviceFingerprint": r.Metadata.DeviceFingerprint,
			"location":          r.Metadata.Location,
			"session":           r.Metadata.Session,
		},
		"sequence": r.Sequence,
	}
	if len(r.Details) > 0 {
		m["details"] = stringMapValue(r.Details)
	}
	if len(r.Evidence) > 0 {
		m["evidence"] = stringMapValue(r.Evidence)
	}

	var buf bytes.Buffer
	if err := encodeSorted(&buf, m); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func stringMapValue(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// recordHash computes SHA256(previousHash + "|" + canonical). The "|"
// separator prevents prefix-collision between the chain head and the body.
func recordHash(r AuditRecord) (string, error) {
	canon, err := canonicalRecord(r)
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	sum := sha256.Sum256([]byte(r.PreviousHash + "|" + canon))
	return hex.EncodeToString(sum[:]), nil
}

// foldRootHash computes the running hash-of-hashes over ordered records:
// h0 = records[0].hash; h_i = SHA256(h_{i-1} + records[i].hash).
func foldRootHash(records []AuditRecord) string {
	if len(records) == 0 {
		return ""
	}
	root := records[0].Hash
	for _, r := range records[1:] {
		sum := sha256.Sum256([]byte(root + r.Hash))
		root = hex.EncodeToString(sum[:])
	}
	return root
}

func encodeSorted(buf *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k) // string key
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeSorted(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeSorted(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}
