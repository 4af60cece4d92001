package config

import "time"

// Gas limits used when the node cannot estimate the call.
const (
	GasLimitBuyCoffee = uint64(150_000) // buyCoffee pushes a string into storage
	GasLimitOwnerCall = uint64(80_000)  // setOwner / withdraw
)

// Timeouts and intervals.
const (
	RPCSelectTimeout    = 10 * time.Second
	ReadTimeout         = 20 * time.Second
	ReceiptPollInterval = 2 * time.Second
)

// MinAmount is the smallest donation the form accepts, in native units.
const MinAmount = "0.001"
