package transport

import (
	"errors"
	"strings"
	"testing"
)

// Valid v3 addresses derived from fixed public keys. No service runs behind them.
const (
	// all-zero public key
	testOnionV3Addr1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion"
	// public key 0, 1, 2, ..., 31
	testOnionV3Addr2 = "aaaqeayeaudaocajbifqydiob4ibceqtcqkrmfyydenbwha5dyp3kead.onion"
)

func TestIsValidV3Address(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid address", testOnionV3Addr1, true},
		{"valid sequential key address", testOnionV3Addr2, true},
		{"upper case is accepted", strings.ToUpper(testOnionV3Addr1[:56]) + ".onion", true},
		{"bad checksum", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqe.onion", false},
		{"v2 address", "facebookcorewwwi.onion", false},
		{"too short", "abc.onion", false},
		{"too long", strings.Repeat("a", 57) + ".onion", false},
		{"invalid base32 characters", strings.Repeat("1", 56) + ".onion", false},
		{"missing suffix", testOnionV3Addr1[:56], false},
		{"suffix only", ".onion", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidV3Address(tc.address); got != tc.expected {
				t.Errorf("IsValidV3Address(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

func TestIsOnionHost(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		host     string
		expected bool
	}{
		{testOnionV3Addr1, true},
		{testOnionV3Addr1 + ":8080", true},
		{"EXAMPLE.ONION", true},
		{"ru.hexlet.io", false},
		{"onion.example.com", false},
		{"127.0.0.1:9050", false},
	}

	for _, tc := range testCases {
		if got := IsOnionHost(tc.host); got != tc.expected {
			t.Errorf("IsOnionHost(%q) = %v, expected %v", tc.host, got, tc.expected)
		}
	}
}

func TestValidateOnionHost(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		host    string
		wantErr error
	}{
		{"valid", testOnionV3Addr1, nil},
		{"valid with port", testOnionV3Addr2 + ":8080", nil},
		{"v2", "facebookcorewwwi.onion", ErrV2AddressDeprecated},
		{"typo", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqe.onion", ErrInvalidOnionAddress},
		{"placeholder", "example.onion", ErrInvalidOnionAddress},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateOnionHost(tc.host)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateOnionHost(%q) = %v, expected %v", tc.host, err, tc.wantErr)
			}
		})
	}
}
