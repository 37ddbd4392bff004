package nft

import "encoding/json"

// NFT is one entry of an Alchemy getNFTsForOwner response. Both the v3
// fields (image, raw.metadata) and the older v2 fields (metadata, media) are
// accepted.
type NFT struct {
	Contract        Contract  `json:"contract"`
	TokenID         string    `json:"tokenId"`
	TokenType       string    `json:"tokenType,omitempty"`
	Name            string    `json:"name,omitempty"`
	Description     string    `json:"description,omitempty"`
	Image           *Image    `json:"image,omitempty"`
	Metadata        *Metadata `json:"metadata,omitempty"`
	Raw             *Raw      `json:"raw,omitempty"`
	Media           []Media   `json:"media,omitempty"`
	TimeLastUpdated string    `json:"timeLastUpdated"`
}

type Contract struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
}

type Metadata struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

type Raw struct {
	TokenURI string    `json:"tokenUri,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type Image struct {
	CachedURL    string `json:"cachedUrl,omitempty"`
	OriginalURL  string `json:"originalUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

type Media struct {
	Raw       string `json:"raw,omitempty"`
	Gateway   string `json:"gateway,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Format    string `json:"format,omitempty"`
}

type ownedNFTsResponse struct {
	OwnedNFTs  []NFT       `json:"ownedNfts"`
	TotalCount json.Number `json:"totalCount"`
	PageKey    string      `json:"pageKey,omitempty"`
}

// Record is the flattened NFT shape returned to API clients.
type Record struct {
	TokenID         string `json:"tokenId"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	ContractAddress string `json:"contractAddress"`
	LastUpdated     string `json:"lastUpdated"`
}

// metadataField returns the first non-empty value of pick across the v2
// metadata and the v3 raw metadata.
func (n NFT) metadataField(pick func(*Metadata) string) string {
	for _, md := range []*Metadata{n.Metadata, n.rawMetadata()} {
		if md == nil {
			continue
		}
		if v := pick(md); v != "" {
			return v
		}
	}
	return ""
}

func (n NFT) rawMetadata() *Metadata {
	if n.Raw == nil {
		return nil
	}
	return n.Raw.Metadata
}

// DisplayName falls back to metadata and finally to "NFT #id".
func (n NFT) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	if v := n.metadataField(func(md *Metadata) string { return md.Name }); v != "" {
		return v
	}
	return "NFT #" + n.TokenID
}

func (n NFT) DisplayDescription() string {
	if n.Description != "" {
		return n.Description
	}
	if v := n.metadataField(func(md *Metadata) string { return md.Description }); v != "" {
		return v
	}
	return "No description"
}

// ImageURL returns the best image link or "".
func (n NFT) ImageURL() string {
	if n.Image != nil && n.Image.OriginalURL != "" {
		return n.Image.OriginalURL
	}
	if v := n.metadataField(func(md *Metadata) string { return md.Image }); v != "" {
		return v
	}
	if len(n.Media) > 0 {
		return n.Media[0].Gateway
	}
	return ""
}

func (n NFT) Record() Record {
	return Record{
		TokenID:         n.TokenID,
		Name:            n.DisplayName(),
		Description:     n.DisplayDescription(),
		Image:           n.ImageURL(),
		ContractAddress: n.Contract.Address,
		LastUpdated:     n.TimeLastUpdated,
	}
}

func Records(nfts []NFT) []Record {
	out := make([]Record, 0, len(nfts))
	for _, n := range nfts {
		out = append(out, n.Record())
	}
	return out
}
