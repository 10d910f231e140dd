package event

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// DomainBatch prefixes batch keys. The version suffix leaves room for a
// future algorithm change without colliding with old keys.
const DomainBatch = "heatmap/batch/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BatchKey derives a stable idempotency key from the ordered queue ids of a
// batch. Retrying the same snapshot yields the same key, so the receiving
// service can recognise a redelivery.
func BatchKey(ids []int64) string {
	buf := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	}
	return hashWithDomain(DomainBatch, buf)
}
