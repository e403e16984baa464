package abi

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ClankerFactoryV3ABI abi.ABI
var ClankerFactoryV4ABI abi.ABI
var ZoraCoinFactoryABI abi.ABI

var clankerFactoryV3ABI = `[{"type":"event","anonymous":false,"name":"TokenCreated","inputs":[{"type":"address","name":"tokenAddress","indexed":true},{"type":"address","name":"deployer","indexed":true},{"type":"uint256","name":"fid"},{"type":"string","name":"name"},{"type":"string","name":"symbol"},{"type":"address","name":"pool"}]}]`

var clankerFactoryV4ABI = `[{"type":"event","anonymous":false,"name":"TokenCreated","inputs":[{"type":"address","name":"tokenAddress","indexed":true},{"type":"address","name":"tokenAdmin","indexed":true},{"type":"address","name":"msgSender"},{"type":"string","name":"name"},{"type":"string","name":"symbol"},{"type":"address","name":"pool"}]}]`

var zoraCoinFactoryABI = `[{"type":"event","anonymous":false,"name":"CoinCreated","inputs":[{"type":"address","name":"caller","indexed":true},{"type":"address","name":"payoutRecipient","indexed":true},{"type":"address","name":"platformReferrer","indexed":true},{"type":"address","name":"currency"},{"type":"string","name":"uri"},{"type":"string","name":"name"},{"type":"string","name":"symbol"},{"type":"address","name":"coin"},{"type":"bytes32","name":"poolKeyHash"},{"type":"string","name":"version"}]},{"type":"event","anonymous":false,"name":"CreatorCoinCreated","inputs":[{"type":"address","name":"caller","indexed":true},{"type":"address","name":"payoutRecipient","indexed":true},{"type":"address","name":"platformReferrer","indexed":true},{"type":"address","name":"currency"},{"type":"string","name":"uri"},{"type":"string","name":"name"},{"type":"string","name":"symbol"},{"type":"address","name":"coin"},{"type":"bytes32","name":"poolKeyHash"},{"type":"string","name":"version"}]}]`

func init() {
	_v3, err := abi.JSON(strings.NewReader(clankerFactoryV3ABI))
	if err != nil {
		panic("Failed to parse clanker factory v3 abi")
	}
	ClankerFactoryV3ABI = _v3

	_v4, err := abi.JSON(strings.NewReader(clankerFactoryV4ABI))
	if err != nil {
		panic("Failed to parse clanker factory v4 abi")
	}
	ClankerFactoryV4ABI = _v4

	_zora, err := abi.JSON(strings.NewReader(zoraCoinFactoryABI))
	if err != nil {
		panic("Failed to parse zora coin factory abi")
	}
	ZoraCoinFactoryABI = _zora
}

type ClankerTokenCreatedV3Log struct {
	TokenAddress common.Address // indexed
	Deployer     common.Address // indexed
	Fid          *big.Int
	Name         string
	Symbol       string
	Pool         common.Address
}

type ClankerTokenCreatedV4Log struct {
	TokenAddress common.Address // indexed
	TokenAdmin   common.Address // indexed
	MsgSender    common.Address
	Name         string
	Symbol       string
	Pool         common.Address
}

type ZoraCoinCreatedLog struct {
	Caller           common.Address // indexed
	PayoutRecipient  common.Address // indexed
	PlatformReferrer common.Address // indexed
	Currency         common.Address
	Uri              string
	Name             string
	Symbol           string
	Coin             common.Address
	PoolKeyHash      [32]byte
	Version          string
}

func ToClankerTokenCreatedV3Log(log *types.Log) (*ClankerTokenCreatedV3Log, error) {
	var created ClankerTokenCreatedV3Log
	if err := ClankerFactoryV3ABI.UnpackIntoInterface(&created, "TokenCreated", log.Data); err != nil {
		return nil, err
	}
	created.TokenAddress = common.BytesToAddress(log.Topics[1].Bytes())
	created.Deployer = common.BytesToAddress(log.Topics[2].Bytes())
	return &created, nil
}

func ToClankerTokenCreatedV4Log(log *types.Log) (*ClankerTokenCreatedV4Log, error) {
	var created ClankerTokenCreatedV4Log
	if err := ClankerFactoryV4ABI.UnpackIntoInterface(&created, "TokenCreated", log.Data); err != nil {
		return nil, err
	}
	created.TokenAddress = common.BytesToAddress(log.Topics[1].Bytes())
	created.TokenAdmin = common.BytesToAddress(log.Topics[2].Bytes())
	return &created, nil
}

func ToZoraCoinCreatedLog(log *types.Log, event string) (*ZoraCoinCreatedLog, error) {
	var created ZoraCoinCreatedLog
	if err := ZoraCoinFactoryABI.UnpackIntoInterface(&created, event, log.Data); err != nil {
		return nil, err
	}
	created.Caller = common.BytesToAddress(log.Topics[1].Bytes())
	created.PayoutRecipient = common.BytesToAddress(log.Topics[2].Bytes())
	created.PlatformReferrer = common.BytesToAddress(log.Topics[3].Bytes())
	return &created, nil
}
