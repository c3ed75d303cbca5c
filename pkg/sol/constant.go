package sol

const (
	DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"
	DefaultWSEndpoint  = "wss://api.mainnet-beta.solana.com"

	DefaultRPS   = 8
	DefaultBurst = 2

	// MaxMultipleAccounts is the getMultipleAccounts key limit per request.
	MaxMultipleAccounts = 100
)
