package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNotCoffeeBought is returned when a log is some other event.
var ErrNotCoffeeBought = errors.New("log is not a CoffeeBought event")

// CoffeeBoughtTopic is topic0 of CoffeeBought.
var CoffeeBoughtTopic = EventTopic(coffeeABI.Events["CoffeeBought"].Sig)

// CoffeeBought is a decoded purchase event.
type CoffeeBought struct {
	Contribution
	TxHash      common.Hash
	BlockNumber uint64
}

// ParseCoffeeBought decodes a raw log.
func ParseCoffeeBought(log types.Log) (*CoffeeBought, error) {
	if len(log.Topics) != 2 || log.Topics[0] != CoffeeBoughtTopic {
		return nil, ErrNotCoffeeBought
	}
	out, err := coffeeABI.Unpack("CoffeeBought", log.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding CoffeeBought: %w", err)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("decoding CoffeeBought: unexpected %d fields", len(out))
	}
	amount, _ := out[0].(*big.Int)
	message, _ := out[1].(string)
	timestamp, _ := out[2].(*big.Int)

	return &CoffeeBought{
		Contribution: Contribution{
			Supporter: common.BytesToAddress(log.Topics[1].Bytes()),
			Amount:    amount,
			Message:   message,
			Timestamp: timestamp,
		},
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
	}, nil
}

// FilterCoffeeBought returns CoffeeBought events in [from, to]. A nil to
// means the head block.
func (c *Contract) FilterCoffeeBought(ctx context.Context, from uint64, to *uint64) ([]CoffeeBought, error) {
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{CoffeeBoughtTopic}},
	}
	if to != nil {
		q.ToBlock = new(big.Int).SetUint64(*to)
	}

	logs, err := c.backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filtering CoffeeBought logs: %w", err)
	}

	events := make([]CoffeeBought, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ev, err := ParseCoffeeBought(l)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, nil
}
