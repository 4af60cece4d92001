package contract

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

//go:embed abi/BuyMeACoffee.json
var content embed.FS

var coffeeABI = mustLoadABI()

func mustLoadABI() abi.ABI {
	raw, err := content.ReadFile("abi/BuyMeACoffee.json")
	if err != nil {
		panic(fmt.Sprintf("reading embedded ABI: %v", err))
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parsing embedded ABI: %v", err))
	}
	return parsed
}

// ABI returns the parsed contract ABI.
func ABI() abi.ABI { return coffeeABI }

// EventTopic hashes a canonical event signature such as
// "CoffeeBought(address,uint256,string,uint256)" into its topic0.
func EventTopic(sig string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return common.BytesToHash(h.Sum(nil))
}
