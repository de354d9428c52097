package transport

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix is the top-level domain of Tor hidden services.
const OnionSuffix = ".onion"

// onionV3Version is the version byte embedded in a v3 address.
const onionV3Version = 0x03

var (
	// v3 addresses are 56 base32 characters; base32 has no 0, 1, 8 or 9.
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)
)

var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host belongs to the .onion domain.
// A trailing port is ignored.
func IsOnionHost(host string) bool {
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}

// IsValidV3Address reports whether address is a v3 onion address whose
// embedded checksum matches its public key.
//
// Design decision: The checksum is verified, not only the shape, so a
// mistyped address fails before an embedded Tor daemon spends minutes
// bootstrapping for a page that can never load.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// pubkey (32) || checksum (2) || version (1)
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}
	expected := computeV3Checksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// computeV3Checksum returns the first two bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	hash := sha3.Sum256(data)
	return hash[:2]
}

// IsV2Address reports whether address has the shape of a retired v2 onion
// address.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// ValidateOnionHost checks a .onion host (an optional port is allowed) and
// returns ErrV2AddressDeprecated or ErrInvalidOnionAddress when it cannot be
// reached over Tor.
func ValidateOnionHost(host string) error {
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if IsValidV3Address(host) {
		return nil
	}
	if IsV2Address(host) {
		return ErrV2AddressDeprecated
	}
	return ErrInvalidOnionAddress
}
