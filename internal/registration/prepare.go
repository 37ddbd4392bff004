package registration

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joelkehle/mark3/internal/config"
	"github.com/joelkehle/mark3/internal/ipfs"
)

// WIPTokenAddress is the wrapped IP token used as the licensing currency.
const WIPTokenAddress = "0x1514000000000000000000000000000000000000"

const (
	defaultMintingFee  = 1
	commercialRevShare = 5
)

// Pinner is the subset of the IPFS client registration needs.
type Pinner interface {
	ipfs.Pinner
	GatewayURL(cid string) string
}

type Creator struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	ContributionPercent int    `json:"contributionPercent"`
}

// IPMetadata follows the Story Protocol IPA metadata standard.
type IPMetadata struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CreatedAt   string      `json:"createdAt"`
	Creators    []Creator   `json:"creators"`
	Image       string      `json:"image"`
	ImageHash   common.Hash `json:"imageHash"`
	MediaURL    string      `json:"mediaUrl"`
	MediaHash   common.Hash `json:"mediaHash"`
	MediaType   string      `json:"mediaType"`
}

type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTMetadata follows the ERC-721 metadata JSON schema.
type NFTMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []NFTAttribute `json:"attributes"`
}

// LicenseTerms are the commercial remix PIL terms attached at mint time.
type LicenseTerms struct {
	Kind               string `json:"kind"`
	DefaultMintingFee  int64  `json:"defaultMintingFee"`
	CommercialRevShare int    `json:"commercialRevShare"`
	Currency           string `json:"currency"`
}

// Prepared carries everything the wallet needs to call
// mintAndRegisterIpAssetWithPilTerms.
type Prepared struct {
	IPMetadata      IPMetadata   `json:"ipMetadata"`
	IPMetadataURI   string       `json:"ipMetadataURI"`
	IPMetadataHash  common.Hash  `json:"ipMetadataHash"`
	NFTMetadata     NFTMetadata  `json:"nftMetadata"`
	NFTMetadataURI  string       `json:"nftMetadataURI"`
	NFTMetadataHash common.Hash  `json:"nftMetadataHash"`
	SPGNFTContract  string       `json:"spgNftContract"`
	ChainID         int64        `json:"chainId"`
	Network         string       `json:"network"`
	LicenseTerms    LicenseTerms `json:"licenseTerms"`
	ExplorerURL     string       `json:"explorerUrl"`
}

// Upload is the result of pinning a trademark image.
type Upload struct {
	ipfs.Pin
	URI        string `json:"uri"`
	GatewayURL string `json:"gatewayUrl"`
}

type Preparer struct {
	pinner      Pinner
	network     config.Network
	spgContract string
	now         func() time.Time
}

func NewPreparer(pinner Pinner, network config.Network, spgContract string) *Preparer {
	if spgContract == "" {
		spgContract = network.DefaultSPGNFTContract
	}
	return &Preparer{pinner: pinner, network: network, spgContract: spgContract, now: time.Now}
}

// Prepare validates form, pins the IP and NFT metadata documents and returns
// their URIs and SHA-256 content hashes.
func (p *Preparer) Prepare(ctx context.Context, form Form) (Prepared, error) {
	ctx, span := otel.Tracer("github.com/joelkehle/mark3/internal/registration").Start(ctx, "registration.Prepare")
	defer span.End()

	if err := form.Validate(); err != nil {
		return Prepared{}, err
	}
	form = form.normalized()
	owner := common.HexToAddress(form.LegalOwner).Hex()
	image := imageURI(form.ImageIPFSID)

	ipMeta := IPMetadata{
		Title:       form.Name,
		Description: form.Description,
		CreatedAt:   strconv.FormatInt(p.now().Unix(), 10),
		Creators:    []Creator{{Name: form.Author, Address: owner, ContributionPercent: 100}},
		Image:       image,
		MediaType:   "text/plain",
	}
	nftMeta := NFTMetadata{
		Name:        form.Name,
		Description: form.Description,
		Image:       image,
		Attributes: []NFTAttribute{
			{TraitType: "Type", Value: "Trademark"},
			{TraitType: "Author", Value: form.Author},
			{TraitType: "Legal Owner", Value: owner},
		},
	}

	ipURI, ipHash, err := p.pinDocument(ctx, "ip-metadata-"+slug(form.Name), ipMeta)
	if err != nil {
		return Prepared{}, err
	}
	nftURI, nftHash, err := p.pinDocument(ctx, "nft-metadata-"+slug(form.Name), nftMeta)
	if err != nil {
		return Prepared{}, err
	}
	span.SetAttributes(attribute.String("registration.ip_metadata_uri", ipURI))

	return Prepared{
		IPMetadata:      ipMeta,
		IPMetadataURI:   ipURI,
		IPMetadataHash:  ipHash,
		NFTMetadata:     nftMeta,
		NFTMetadataURI:  nftURI,
		NFTMetadataHash: nftHash,
		SPGNFTContract:  p.spgContract,
		ChainID:         p.network.ChainID,
		Network:         p.network.Name,
		LicenseTerms: LicenseTerms{
			Kind:               "commercial_remix",
			DefaultMintingFee:  defaultMintingFee,
			CommercialRevShare: commercialRevShare,
			Currency:           WIPTokenAddress,
		},
		ExplorerURL: p.network.ProtocolExplorer,
	}, nil
}

// pinDocument pins doc and hashes the exact bytes that were pinned.
func (p *Preparer) pinDocument(ctx context.Context, name string, doc any) (string, common.Hash, error) {
	blob, err := json.Marshal(doc)
	if err != nil {
		return "", common.Hash{}, fmt.Errorf("encode %s: %w", name, err)
	}
	pin, err := p.pinner.PinJSON(ctx, name, json.RawMessage(blob))
	if err != nil {
		return "", common.Hash{}, err
	}
	return ipfs.URI(pin.IpfsHash), common.Hash(sha256.Sum256(blob)), nil
}

// UploadImage pins a trademark image.
func (p *Preparer) UploadImage(ctx context.Context, name string, r io.Reader) (Upload, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		name = "trademark-image"
	}
	pin, err := p.pinner.PinFile(ctx, name, r)
	if err != nil {
		return Upload{}, err
	}
	return Upload{Pin: pin, URI: ipfs.URI(pin.IpfsHash), GatewayURL: p.pinner.GatewayURL(pin.IpfsHash)}, nil
}

func imageURI(id string) string {
	if strings.Contains(id, "://") {
		return id
	}
	return ipfs.URI(strings.TrimPrefix(id, "/ipfs/"))
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
