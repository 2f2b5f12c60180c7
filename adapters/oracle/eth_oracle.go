package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/ports"
	"github.com/shopspring/decimal"
)

// EthOracle answers ownership queries with read-only calls against one contract.
// The contract is expected to speak ERC-721 for single-owner and collection
// queries and ERC-1155 for balance queries.
type EthOracle struct {
	caller     ethereum.ContractCaller
	contract   common.Address
	minBalance decimal.Decimal
	logger     *slog.Logger
}

// NewEthOracle creates an oracle over any contract caller
func NewEthOracle(caller ethereum.ContractCaller, contract common.Address, minBalance decimal.Decimal, logger *slog.Logger) ports.OwnershipOracle {
	if minBalance.LessThanOrEqual(decimal.Zero) {
		minBalance = decimal.NewFromInt(1)
	}
	return &EthOracle{
		caller:     caller,
		contract:   contract,
		minBalance: minBalance,
		logger:     logger,
	}
}

// Dial connects to an RPC endpoint and returns an oracle plus the client to close
func Dial(ctx context.Context, rpcURL string, contract common.Address, minBalance decimal.Decimal, logger *slog.Logger) (ports.OwnershipOracle, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial rpc: %w", err)
	}
	return NewEthOracle(client, contract, minBalance, logger), client, nil
}

// ResolveSingleOwner calls ERC-721 ownerOf
func (o *EthOracle) ResolveSingleOwner(ctx context.Context, asset core.AssetRef) (string, error) {
	id, ok := asset.BigInt()
	if !ok {
		return "", core.ErrInvalidAsset
	}

	out, err := o.call(ctx, erc721, "ownerOf", id)
	if err != nil {
		return "", err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unexpected ownerOf result %T", out[0])
	}

	o.logger.Debug("resolved single owner",
		slog.String("asset", string(asset)),
		slog.String("owner", owner.Hex()))

	return owner.Hex(), nil
}

// ResolveBalanceOwner calls ERC-1155 balanceOf(account, id)
func (o *EthOracle) ResolveBalanceOwner(ctx context.Context, account string, asset core.AssetRef) (bool, error) {
	id, ok := asset.BigInt()
	if !ok {
		return false, core.ErrInvalidAsset
	}
	if !common.IsHexAddress(account) {
		return false, fmt.Errorf("invalid account %q", account)
	}

	out, err := o.call(ctx, erc1155, "balanceOf", common.HexToAddress(account), id)
	if err != nil {
		return false, err
	}
	return o.holds(out, account, string(asset))
}

// ResolveCollectionHolder calls ERC-721 balanceOf(account)
func (o *EthOracle) ResolveCollectionHolder(ctx context.Context, account string) (bool, error) {
	if !common.IsHexAddress(account) {
		return false, fmt.Errorf("invalid account %q", account)
	}

	out, err := o.call(ctx, erc721, "balanceOf", common.HexToAddress(account))
	if err != nil {
		return false, err
	}
	return o.holds(out, account, "")
}

func (o *EthOracle) holds(out []interface{}, account, asset string) (bool, error) {
	raw, ok := out[0].(*big.Int)
	if !ok {
		return false, fmt.Errorf("unexpected balanceOf result %T", out[0])
	}
	balance := decimal.NewFromBigInt(raw, 0)

	o.logger.Debug("resolved balance",
		slog.String("account", account),
		slog.String("asset", asset),
		slog.String("balance", balance.String()))

	return balance.GreaterThanOrEqual(o.minBalance), nil
}

func (o *EthOracle) call(ctx context.Context, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	res, err := o.caller.CallContract(ctx, ethereum.CallMsg{To: &o.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	out, err := contractABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}

	return out, nil
}
