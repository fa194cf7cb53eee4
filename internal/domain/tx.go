package domain

import "math/big"

// ReceiptStatusSuccess is the receipt status value of a transaction that
// executed without reverting.
const ReceiptStatusSuccess uint64 = 1

// TxRequest describes a transaction to be estimated or submitted through a
// chain client. From is informational: it scopes gas estimation and allowance
// reads, the chain client never uses it to pick a signing key.
type TxRequest struct {
	From     string   `json:"from,omitempty"`
	To       string   `json:"to"`
	Value    *big.Int `json:"value,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	GasPrice *big.Int `json:"gas_price,omitempty"`
	Gas      uint64   `json:"gas,omitempty"`
}

// TxLookup is the result of looking a transaction up by hash.
type TxLookup struct {
	Hash          string
	Confirmations uint64
}

// TxReceipt carries the outcome of a mined transaction. Status is 1 on
// success and 0 on revert.
type TxReceipt struct {
	Status uint64
}
