package intent

import (
	"regexp"
	"strings"
)

// AddressHint records which address-like token drove extraction.
type AddressHint string

const (
	HintNone  AddressHint = "none"
	HintFull  AddressHint = "full"
	HintENS   AddressHint = "ens"
	HintShort AddressHint = "short"
)

var (
	fullAddressRe  = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
	addressShapeRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	ensNameRe      = regexp.MustCompile(`[a-zA-Z0-9-]+\.eth`)
	shortAddressRe = regexp.MustCompile(`0x[a-fA-F0-9]{6,}`)
)

// extractAddress returns the first full wallet address in message. ENS names
// and truncated hex strings are detected but never returned.
func extractAddress(message string) (string, AddressHint) {
	if m := fullAddressRe.FindString(message); m != "" && validAddressFormat(m) {
		return m, HintFull
	}
	if ensNameRe.MatchString(message) {
		return "", HintENS
	}
	if shortAddressRe.MatchString(message) {
		return "", HintShort
	}
	return "", HintNone
}

// validAddressFormat checks the 0x + 40 hex shape. The case comparison never
// fails: no EIP-55 checksum is enforced here.
func validAddressFormat(addr string) bool {
	if !addressShapeRe.MatchString(addr) {
		return false
	}
	lowered := strings.ToLower(addr)
	return lowered == strings.ToLower(addr)
}
