// Package intent detects what a chat message asks Mark3 to do: register a
// trademark, list NFTs, or neither, and which wallet address it mentions.
package intent

// Result is the outcome of classifying one message. The zero value means no
// intent and no address.
type Result struct {
	WantsRegistration bool        `json:"wantsRegistration"`
	WantsAssetListing bool        `json:"wantsAssetListing"`
	Address           string      `json:"extractedAddress,omitempty"`
	Hint              AddressHint `json:"addressHint"`
}

func (r Result) HasAddress() bool {
	return r.Address != ""
}

// Classify is total over all strings, including empty and invalid UTF-8
// input, and safe for concurrent use.
func Classify(message string) Result {
	addr, hint := extractAddress(message)
	return Result{
		WantsRegistration: matchesCategory(message, CategoryRegistration),
		WantsAssetListing: matchesCategory(message, CategoryListing),
		Address:           addr,
		Hint:              hint,
	}
}
