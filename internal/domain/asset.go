package domain

// Asset identifies a fungible asset on a specific chain. Token assets carry
// the contract address of the token; the chain's native asset has none.
type Asset struct {
	Code            string `json:"code"`
	ChainID         string `json:"chain_id"`
	ContractAddress string `json:"contract_address,omitempty"`
	Decimals        int    `json:"decimals"`
}

// IsToken reports whether the asset is a contract token rather than the
// chain's native asset.
func (a Asset) IsToken() bool {
	return a.ContractAddress != ""
}

// SameChain reports whether both assets live on the same chain.
func (a Asset) SameChain(b Asset) bool {
	return a.ChainID == b.ChainID
}

// Equal reports whether two assets refer to the same code on the same chain.
func (a Asset) Equal(b Asset) bool {
	return a.Code == b.Code && a.ChainID == b.ChainID
}
