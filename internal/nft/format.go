package nft

import (
	"fmt"
	"strings"
	"time"
)

const emptyListMessage = "You don't have any NFTs registered in your wallet."

// FormatNFT renders one NFT as a markdown section.
func FormatNFT(n NFT) string {
	name := n.DisplayName()
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (ID: %s)\n\n", name, n.TokenID)
	fmt.Fprintf(&b, "📝 **Description:** %s\n\n", n.DisplayDescription())
	fmt.Fprintf(&b, "📅 **Last updated:** %s\n\n", formatDate(n.TimeLastUpdated))
	fmt.Fprintf(&b, "🔗 **Contract:** %s", n.Contract.Address)
	if img := n.ImageURL(); img != "" {
		fmt.Fprintf(&b, "\n\n![%s](%s)", name, img)
	}
	b.WriteString("\n\n---")
	return b.String()
}

// FormatList renders a wallet's NFTs for a chat reply.
func FormatList(nfts []NFT) string {
	if len(nfts) == 0 {
		return emptyListMessage
	}
	sections := make([]string, 0, len(nfts))
	for _, n := range nfts {
		sections = append(sections, FormatNFT(n))
	}
	return fmt.Sprintf("## 🎨 Your NFTs (%d found)\n\n%s", len(nfts), strings.Join(sections, "\n\n"))
}

// formatDate prints M/D/YYYY in UTC; unparseable input is echoed back.
func formatDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown"
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return ts.UTC().Format("1/2/2006")
}
