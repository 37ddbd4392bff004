package intent

import "regexp"

// Category names the intent a pattern votes for.
type Category string

const (
	CategoryRegistration Category = "registration"
	CategoryListing      Category = "listing"
)

// Pattern is one row of the classification table.
type Pattern struct {
	Category Category
	Expr     *regexp.Regexp
}

// patternTable is evaluated top to bottom. It is built once at init and never
// mutated afterwards, so concurrent Classify calls share it freely.
//
// The bare "nfts", "tokens" and "collection" rows match any sentence that
// mentions those words. Narrowing them changes which messages short-circuit
// into the wallet prompt, so they stay until product decides otherwise.
var patternTable = []Pattern{
	registration(`i want to register (?:a )?trademark`),
	registration(`register (?:a )?trademark`),
	registration(`i want to register (?:my )?trademark`),
	registration(`i need to register (?:a )?trademark`),
	registration(`i want to register (?:a )?brand`),
	registration(`register (?:a )?brand`),
	registration(`i want to register (?:my )?brand`),

	listing(`show nfts of 0x`),
	listing(`view nfts of 0x`),
	listing(`list nfts of 0x`),
	listing(`what nfts does 0x`),
	listing(`nfts of 0x`),
	listing(`tokens of 0x`),
	listing(`registered trademarks of 0x`),
	listing(`collection of 0x`),
	listing(`show nfts`),
	listing(`view nfts`),
	listing(`list nfts`),
	listing(`what nfts`),
	listing(`my nfts`),
	listing(`my tokens`),
	listing(`my registered trademarks`),
	listing(`my collections`),
	listing(`view my collection`),
	listing(`show my collection`),
	listing(`nfts`),
	listing(`tokens`),
	listing(`registered trademarks`),
	listing(`collection`),
}

func registration(expr string) Pattern {
	return Pattern{Category: CategoryRegistration, Expr: regexp.MustCompile(`(?i)` + expr)}
}

func listing(expr string) Pattern {
	return Pattern{Category: CategoryListing, Expr: regexp.MustCompile(`(?i)` + expr)}
}

// Patterns returns a copy of the classification table in evaluation order.
func Patterns() []Pattern {
	out := make([]Pattern, len(patternTable))
	copy(out, patternTable)
	return out
}

func matchesCategory(message string, category Category) bool {
	for _, p := range patternTable {
		if p.Category != category {
			continue
		}
		if p.Expr.MatchString(message) {
			return true
		}
	}
	return false
}
