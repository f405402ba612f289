package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Hand-maintained ABI subsets covering exactly the surface this service
// calls. The contracts themselves are external collaborators.

const userOperationComponents = `[
	{"internalType": "address", "name": "sender", "type": "address"},
	{"internalType": "uint256", "name": "nonce", "type": "uint256"},
	{"internalType": "bytes", "name": "initCode", "type": "bytes"},
	{"internalType": "bytes", "name": "callData", "type": "bytes"},
	{"internalType": "uint256", "name": "callGasLimit", "type": "uint256"},
	{"internalType": "uint256", "name": "verificationGasLimit", "type": "uint256"},
	{"internalType": "uint256", "name": "preVerificationGas", "type": "uint256"},
	{"internalType": "uint256", "name": "maxFeePerGas", "type": "uint256"},
	{"internalType": "uint256", "name": "maxPriorityFeePerGas", "type": "uint256"},
	{"internalType": "bytes", "name": "paymasterAndData", "type": "bytes"},
	{"internalType": "bytes", "name": "signature", "type": "bytes"}
]`

var entryPointABIJSON = `[
	{
		"inputs": [
			{"internalType": "address", "name": "sender", "type": "address"},
			{"internalType": "uint192", "name": "key", "type": "uint192"}
		],
		"name": "getNonce",
		"outputs": [{"internalType": "uint256", "name": "nonce", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "depositTo",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{
				"components": ` + userOperationComponents + `,
				"internalType": "struct UserOperation[]",
				"name": "ops",
				"type": "tuple[]"
			},
			{"internalType": "address payable", "name": "beneficiary", "type": "address"}
		],
		"name": "handleOps",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "bytes32", "name": "userOpHash", "type": "bytes32"},
			{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "paymaster", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "nonce", "type": "uint256"},
			{"indexed": false, "internalType": "bool", "name": "success", "type": "bool"},
			{"indexed": false, "internalType": "uint256", "name": "actualGasCost", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "actualGasUsed", "type": "uint256"}
		],
		"name": "UserOperationEvent",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "bytes32", "name": "userOpHash", "type": "bytes32"},
			{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "factory", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "paymaster", "type": "address"}
		],
		"name": "AccountDeployed",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [],
		"name": "BeforeExecution",
		"type": "event"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "opIndex", "type": "uint256"},
			{"internalType": "string", "name": "reason", "type": "string"}
		],
		"name": "FailedOp",
		"type": "error"
	}
]`

const factoryABIJSON = `[
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "createAccount",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const accountABIJSON = `[
	{
		"inputs": [
			{"internalType": "address", "name": "dest", "type": "address"},
			{"internalType": "uint256", "name": "value", "type": "uint256"},
			{"internalType": "bytes", "name": "functionData", "type": "bytes"}
		],
		"name": "execute",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "count",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const electionABIJSON = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "_electionId", "type": "uint256"},
			{"internalType": "string", "name": "_candidateId", "type": "string"}
		],
		"name": "vote",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_electionId", "type": "uint256"},
			{"internalType": "string", "name": "email", "type": "string"}
		],
		"name": "addCandidate",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "string", "name": "_position", "type": "string"},
			{"internalType": "uint256", "name": "_regStart", "type": "uint256"},
			{"internalType": "uint256", "name": "_regEnd", "type": "uint256"},
			{"internalType": "uint256", "name": "_electionStart", "type": "uint256"},
			{"internalType": "uint256", "name": "_electionEnd", "type": "uint256"},
			{"internalType": "address", "name": "_token", "type": "address"}
		],
		"name": "createElection",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "_electionId", "type": "uint256"}],
		"name": "getCandidates",
		"outputs": [{"internalType": "string[]", "name": "", "type": "string[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_electionId", "type": "uint256"},
			{"internalType": "string", "name": "_candidateId", "type": "string"}
		],
		"name": "getCandidateVotes",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "_electionId", "type": "uint256"}],
		"name": "getElection",
		"outputs": [
			{"internalType": "uint256", "name": "electionId", "type": "uint256"},
			{"internalType": "string", "name": "position", "type": "string"},
			{"internalType": "uint256", "name": "regStart", "type": "uint256"},
			{"internalType": "uint256", "name": "regEnd", "type": "uint256"},
			{"internalType": "uint256", "name": "electionStart", "type": "uint256"},
			{"internalType": "uint256", "name": "electionEnd", "type": "uint256"},
			{"internalType": "address", "name": "token", "type": "address"},
			{"internalType": "string", "name": "winner", "type": "string"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getelectionIdCounter",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const tokenABIJSON = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_voter", "type": "address"},
			{"internalType": "uint256", "name": "currentElectionId", "type": "uint256"}
		],
		"name": "mintAuthorizedVoters",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "_voter", "type": "address"}],
		"name": "voterElectionId",
		"outputs": [{"internalType": "uint256", "name": "electionId", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	entryPointABI = mustParseABI("EntryPoint", entryPointABIJSON)
	factoryABI    = mustParseABI("AccountFactory", factoryABIJSON)
	accountABI    = mustParseABI("Account", accountABIJSON)
	electionABI   = mustParseABI("Election", electionABIJSON)
	tokenABI      = mustParseABI("Token", tokenABIJSON)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse %s ABI: %v", name, err))
	}
	return parsed
}
