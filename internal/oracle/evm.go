package oracle

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"oracleAMM/internal/model"
	"oracleAMM/internal/retry"
)

// Backend is the chain access the EVM oracle needs. *chain.Client satisfies it.
type Backend interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type EVMConfig struct {
	Contract     common.Address
	PrivateKey   string
	MaxRetries   int
	RetryBackoff time.Duration
	PollInterval time.Duration
}

// EVMClient reads and refreshes prices on a Pyth-style contract.
type EVMClient struct {
	backend  Backend
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	cfg      EVMConfig
	logger   *zap.Logger
}

type pythPrice struct {
	Price       int64
	Conf        uint64
	Expo        int32
	PublishTime *big.Int
}

func NewEVMClient(backend Backend, cfg EVMConfig, logger *zap.Logger) (*EVMClient, error) {
	if backend == nil {
		return nil, fmt.Errorf("oracle backend is nil")
	}
	if cfg.Contract == (common.Address{}) {
		return nil, fmt.Errorf("oracle contract address is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := PythABI(); err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}

	c := &EVMClient{backend: backend, contract: cfg.Contract, cfg: cfg, logger: logger}
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(trimHexPrefix(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("parse oracle signer key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

func (c *EVMClient) Price(ctx context.Context, feedID common.Hash) (model.PriceQuote, error) {
	parsed, _ := PythABI()
	values, err := c.call(ctx, parsed, "getPriceUnsafe", feedID)
	if err != nil {
		return model.PriceQuote{}, err
	}
	if len(values) == 0 {
		return model.PriceQuote{}, fmt.Errorf("getPriceUnsafe: empty result")
	}
	price := *abi.ConvertType(values[0], new(pythPrice)).(*pythPrice)
	if price.PublishTime == nil || price.PublishTime.Sign() == 0 {
		return model.PriceQuote{}, fmt.Errorf("%w: %s", ErrFeedNotFound, feedID.Hex())
	}
	return model.PriceQuote{
		FeedID:      feedID,
		Price:       price.Price,
		Conf:        price.Conf,
		Expo:        price.Expo,
		PublishTime: price.PublishTime.Uint64(),
	}, nil
}

// UpdatePriceFeeds pays the update fee and submits payload, waiting for the
// transaction to be mined. Placeholder payloads are ignored.
func (c *EVMClient) UpdatePriceFeeds(ctx context.Context, payload []byte) error {
	if IsPlaceholderPayload(payload) {
		return nil
	}
	if c.key == nil {
		return ErrNoSigner
	}
	parsed, _ := PythABI()
	updates := [][]byte{payload}

	values, err := c.call(ctx, parsed, "getUpdateFee", updates)
	if err != nil {
		return err
	}
	fee, ok := values[0].(*big.Int)
	if !ok {
		return fmt.Errorf("getUpdateFee: unexpected type %T", values[0])
	}

	data, err := parsed.Pack("updatePriceFeeds", updates)
	if err != nil {
		return fmt.Errorf("pack updatePriceFeeds: %w", err)
	}
	chainID, err := c.backend.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &c.contract, Value: fee, Data: data})
	if err != nil {
		return fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &c.contract,
		Value:    fee,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), c.key)
	if err != nil {
		return fmt.Errorf("sign update: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send update: %w", err)
	}
	c.logger.Info("price update submitted",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("fee", fee.String()),
		zap.Uint64("nonce", nonce),
	)

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("price update %s reverted", signed.Hash().Hex())
	}
	return nil
}

func (c *EVMClient) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *EVMClient) call(ctx context.Context, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &c.contract, Data: data}

	var resp []byte
	err = retry.Do(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.backend.CallContract(ctx, msg, nil)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
