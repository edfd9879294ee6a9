package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent    = "criteria/event/v1"
	DomainDocument = "criteria/document/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of a buffered event.
// The sequence number is part of the identity: two identical events
// tracked at different positions in the buffer are distinct records.
func EventID(event Event, seq int64) (string, error) {
	obj := IRObject{
		"event": IRObject(event),
		"seq":   IRInt(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// DocumentHash fingerprints a raw criteria document. Documents that are
// not valid JSON are hashed byte-for-byte; valid ones are hashed in
// canonical form so whitespace and key order do not change the hash.
func DocumentHash(raw []byte) string {
	if v, err := UnmarshalIRValue(raw); err == nil {
		if canonical, err := MarshalCanonical(v); err == nil {
			return hashWithDomain(DomainDocument, canonical)
		}
	}
	return hashWithDomain(DomainDocument, raw)
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(event Event, seq int64) string {
	id, err := EventID(event, seq)
	if err != nil {
		panic(err)
	}
	return id
}
