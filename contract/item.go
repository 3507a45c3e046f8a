// Package contract defines the storage item model shared by every storage
// backend: the JSON contract record persisted under a logical key, and the
// shard stream attached to items returned by Get.
package contract

import (
	"encoding/json"
	"fmt"
)

// StorageItem represents a content-addressed entry: the contract metadata
// describing a shard, plus (in memory only) the shard payload stream.
type StorageItem struct {
	// Hash is the immutable logical identity of the item.
	Hash string `json:"hash"`

	// FSKey is the derived physical shard key. It is assigned on first Put
	// and thereafter reused from the stored record, never re-derived.
	FSKey string `json:"fskey,omitempty"`

	// Contracts maps renter/farmer node IDs to their signed contract data.
	Contracts map[string]json.RawMessage `json:"contracts,omitempty"`

	// Trees holds audit merkle leaves per node ID.
	Trees map[string][]string `json:"trees,omitempty"`

	// Challenges holds audit challenge inputs per node ID.
	Challenges map[string][]string `json:"challenges,omitempty"`

	// Meta carries arbitrary caller-supplied fields.
	Meta map[string]json.RawMessage `json:"meta,omitempty"`

	Modified int64 `json:"modified,omitempty"`

	// Shard is the payload stream attached by Get. Persisted records always
	// carry "shard": null; payload bytes are never embedded in the record.
	Shard *ShardStream `json:"shard"`
}

// Clone returns a deep copy of the item's record fields. The shard stream is
// not carried over; clones always start detached.
func (item *StorageItem) Clone() *StorageItem {
	cp := &StorageItem{
		Hash:     item.Hash,
		FSKey:    item.FSKey,
		Modified: item.Modified,
	}
	if item.Contracts != nil {
		cp.Contracts = make(map[string]json.RawMessage, len(item.Contracts))
		for k, v := range item.Contracts {
			cp.Contracts[k] = append(json.RawMessage(nil), v...)
		}
	}
	if item.Trees != nil {
		cp.Trees = make(map[string][]string, len(item.Trees))
		for k, v := range item.Trees {
			cp.Trees[k] = append([]string(nil), v...)
		}
	}
	if item.Challenges != nil {
		cp.Challenges = make(map[string][]string, len(item.Challenges))
		for k, v := range item.Challenges {
			cp.Challenges[k] = append([]string(nil), v...)
		}
	}
	if item.Meta != nil {
		cp.Meta = make(map[string]json.RawMessage, len(item.Meta))
		for k, v := range item.Meta {
			cp.Meta[k] = append(json.RawMessage(nil), v...)
		}
	}
	return cp
}

// Encode serializes the item as a contract record. The shard stream is
// stripped so the persisted form always reads "shard": null.
func Encode(item *StorageItem) ([]byte, error) {
	rec := item.Clone()
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contract record: %w", err)
	}
	return data, nil
}

// Decode parses a persisted contract record. A record that fails to parse as
// a structural contract is reported as ErrCorrupt.
func Decode(data []byte) (*StorageItem, error) {
	var item StorageItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	// A legacy record may persist a non-null shard field. Whatever the
	// decoder allocated for it is not a usable stream; decoded records are
	// always detached.
	item.Shard = nil
	return &item, nil
}
