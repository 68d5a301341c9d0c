package fingerprint

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/pathnova/pathnova-api/internal/model"
)

// DomainProfile separates profile fingerprints from any other digest the
// service might compute over the same bytes. Bump the version when the
// profile key set or canonical form changes, which invalidates every
// cached plan.
const DomainProfile = "pathnova/profile/v1"

// Of returns the hex fingerprint of an arbitrary mapping.
func Of(domain string, fields map[string]any) (string, error) {
	canonical, err := MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalizing: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// Profile returns the cache key for a normalized profile. Two profiles with
// the same key/value content always produce the same fingerprint regardless
// of how they were built.
func Profile(p *model.Profile) (string, error) {
	return Of(DomainProfile, p.Fields())
}

// hashWithDomain is BLAKE2b-256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
