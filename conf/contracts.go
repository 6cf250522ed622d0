package conf

import "strings"

// Chain identifies one of the tracked blockchains.
type Chain string

const (
	ChainELA Chain = "ela"
	ChainETH Chain = "eth"
	ChainFSN Chain = "fsn"
)

// Deployment describes one tracked network on one chain.
type Deployment struct {
	RpcUrl string
	WsUrl  string

	MarketContract   string //marketplace order contract
	StickerContract  string //base token collection contract
	RegisterContract string //collection registry contract
	ChannelContract  string //feed channel registry contract, ELA only

	MarketDeploy   uint64
	StickerDeploy  uint64
	RegisterDeploy uint64
	ChannelDeploy  uint64
}

// Contracts lists the tracked deployments per network.
// Addresses and deploy heights identify the cold-start scan ranges.
var Contracts = map[string]map[Chain]*Deployment{
	"mainnet": {
		ChainELA: {
			RpcUrl:           "https://api.elastos.io/eth",
			WsUrl:            "wss://api.elastos.io/eth-ws",
			MarketContract:   "0xaeA699E4dA22986eB6fa2d714F5AC737Fe93a998",
			StickerContract:  "0xF63f820F4a0bC6E966D61A4b20d24916713Ebb95",
			RegisterContract: "0x3d0AD66765C319c2A1c6330C1d815608543dcc19",
			ChannelContract:  "0xF5c140100F1E8475bc5097FF9D5689d043d9BE12",
			MarketDeploy:     12698149,
			StickerDeploy:    12695430,
			RegisterDeploy:   12698059,
			ChannelDeploy:    15376251,
		},
		ChainETH: {
			RpcUrl:           "https://mainnet.infura.io/v3/9aa3d95b3bc440fa88ea12eaa4456161",
			WsUrl:            "wss://mainnet.infura.io/ws/v3/9aa3d95b3bc440fa88ea12eaa4456161",
			MarketContract:   "0x940b857f2D5FA0cf9f0345B43C0e3308cD9E4A62",
			StickerContract:  "0x020c7303664bc88ae92cE3D380BF361E03B78B81",
			RegisterContract: "0x24A7af00c8d03F2FeEb89045B2B93c1D7C3ffB08",
			MarketDeploy:     15126947,
			StickerDeploy:    15126909,
			RegisterDeploy:   15126930,
		},
		ChainFSN: {
			RpcUrl:           "https://mainnet.fusionnetwork.io",
			WsUrl:            "wss://mainnet.fusionnetwork.io",
			MarketContract:   "0xa18279eBDfA5747e79DBFc23fa999b4Eaf2A9780",
			RegisterContract: "0x020c7303664bc88ae92cE3D380BF361E03B78B81",
			MarketDeploy:     7388472,
			RegisterDeploy:   7388472,
		},
	},
	"testnet": {
		ChainELA: {
			RpcUrl:           "https://api-testnet.elastos.io/eth",
			WsUrl:            "wss://api-testnet.elastos.io/eth-ws",
			MarketContract:   "0x19088c509C390F996802B90bdc4bFe6dc3F5AAA7",
			StickerContract:  "0x32496388d7c0CDdbF4e12BDc84D39B9E42ee4CB0",
			RegisterContract: "0x2b304ffC302b402785294629674A8C2b64cEF897",
			ChannelContract:  "0x38D3fE3C53698fa836Ba0c1e1DD8b1d8584127A7",
			MarketDeploy:     12311847,
			StickerDeploy:    12311834,
			RegisterDeploy:   12311838,
			ChannelDeploy:    14673711,
		},
		ChainETH: {
			RpcUrl:           "https://goerli.infura.io/v3/9aa3d95b3bc440fa88ea12eaa4456161",
			WsUrl:            "wss://goerli.infura.io/ws/v3/9aa3d95b3bc440fa88ea12eaa4456161",
			MarketContract:   "0x7d797f3564073FFF8E75D9D5Be57EBC01512b554",
			StickerContract:  "0xAB5bB5FcEFc9703814AF68077387BC09Be12190b",
			RegisterContract: "0x2C8615B32cf6535Eb38DD076aD822E7c2362a4c7",
			MarketDeploy:     7920243,
			StickerDeploy:    7920234,
			RegisterDeploy:   7920236,
		},
		ChainFSN: {
			RpcUrl:           "https://testnet.fusionnetwork.io",
			WsUrl:            "wss://testnet.fusionnetwork.io",
			MarketContract:   "0xa18279eBDfA5747e79DBFc23fa999b4Eaf2A9780",
			RegisterContract: "0x020c7303664bc88ae92cE3D380BF361E03B78B81",
			MarketDeploy:     7400000,
			RegisterDeploy:   7300000,
		},
	},
}

// Deployments returns the deployments of the configured network.
func Deployments() map[Chain]*Deployment {
	return Contracts[Network]
}

// IsBaseCollection reports whether the contract is one of the platform
// contracts that already have dedicated scanners, as opposed to a
// user registered collection.
func IsBaseCollection(contract string, chain Chain) bool {
	deploy := Contracts[Network][chain]
	if deploy == nil {
		return false
	}
	if strings.EqualFold(deploy.StickerContract, contract) {
		return true
	}
	ela := Contracts[Network][ChainELA]
	return ela != nil && strings.EqualFold(ela.ChannelContract, contract)
}
