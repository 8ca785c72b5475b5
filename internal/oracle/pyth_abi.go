package oracle

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const pythABIJSON = `[
  {
    "inputs": [{"internalType": "bytes32", "name": "id", "type": "bytes32"}],
    "name": "getPriceUnsafe",
    "outputs": [
      {
        "components": [
          {"internalType": "int64", "name": "price", "type": "int64"},
          {"internalType": "uint64", "name": "conf", "type": "uint64"},
          {"internalType": "int32", "name": "expo", "type": "int32"},
          {"internalType": "uint256", "name": "publishTime", "type": "uint256"}
        ],
        "internalType": "struct PythStructs.Price",
        "name": "price",
        "type": "tuple"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "updateData", "type": "bytes[]"}],
    "name": "getUpdateFee",
    "outputs": [{"internalType": "uint256", "name": "feeAmount", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "updateData", "type": "bytes[]"}],
    "name": "updatePriceFeeds",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	pythABI     abi.ABI
	pythABIOnce sync.Once
	pythABIErr  error
)

// PythABI returns the parsed price-feed contract ABI.
func PythABI() (abi.ABI, error) {
	pythABIOnce.Do(func() {
		pythABI, pythABIErr = abi.JSON(strings.NewReader(pythABIJSON))
	})
	return pythABI, pythABIErr
}
