package chat

const (
	NoticeWalletNotConnected = "wallet_not_connected"
	NoticeNoWalletAddress    = "no_wallet_address"
)

const (
	walletNotConnectedMessage = "To register a trademark, you need to connect your wallet first. Please connect your wallet and try again."
	noWalletAddressMessage    = `To view NFTs, you need to specify a wallet address in the message. Example: "Show NFTs of 0x1234567890123456789012345678901234567890"`
	ensHintMessage            = "ENS names are not resolved yet, please use the full 0x address instead."
	shortHintMessage          = "The address in your message looks incomplete: a wallet address has 42 characters including 0x."
	emptyCompletionMessage    = "Sorry, I could not generate a response."
	nftFetchFailedMessage     = "Sorry, I could not get the NFTs for you at this time. Please try again later."
	nftNotConfiguredMessage   = "NFT lookups are not available on this server right now."
)

const registrationBlock = `

## 🔗 Trademark Registration on Blockchain

I've detected that you want to register a trademark. To proceed, you'll need to complete a form with the following data:

### 📋 Required Data:
- **Trademark name** (required): The name that will identify your trademark
- **Description** (required): Detailed description of your trademark and its purpose
- **Author** (required): The author of the trademark
- **IPFS image ID** (required): The IPFS identifier where your trademark image is stored

### 👤 Legal Owner
Will be automatically taken from your connected wallet

### ✅ Benefits of on-chain registration:
- Total immutability and transparency
- Instant global verification
- Protection against counterfeiting
- Complete ownership history

### 💡 Next steps:
1. A form will be displayed to complete the data
2. Fill in all required fields
3. Confirm the transaction in your wallet
4. Your trademark will be registered on the blockchain!

Are you ready to proceed with the registration?`

const nftBlockTemplate = `

## 🎨 NFT Query for wallet %s

%s

### 💡 Additional information:
- The NFTs shown are from the wallet specified in the message
- Each NFT represents a trademark registered on the blockchain
- You can use token IDs for specific references
- Metadata includes complete information about each trademark

### 💡 To query other wallets:
- Include the complete address in your message: "Show NFTs of 0x1234567890123456789012345678901234567890"
- You can query any wallet without needing to connect it

Would you like to query another wallet?`
