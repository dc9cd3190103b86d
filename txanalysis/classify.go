package txanalysis

import "strings"

// TransactionType is the semantic classification of a transaction.
type TransactionType string

const (
	TypeSwap            TransactionType = "swap"
	TypeDeposit         TransactionType = "deposit"
	TypeWithdraw        TransactionType = "withdraw"
	TypeAddLiquidity    TransactionType = "add_liquidity"
	TypeRemoveLiquidity TransactionType = "remove_liquidity"
	TypeStake           TransactionType = "stake"
	TypeHarvest         TransactionType = "harvest"
	TypeUnstake         TransactionType = "unstake"
	TypeBorrow          TransactionType = "borrow"
	TypeRepay           TransactionType = "repay"
	TypeTransfer        TransactionType = "transfer"
	TypeAccountCreation TransactionType = "account_creation"
	TypeUnknown         TransactionType = "unknown"
	TypeError           TransactionType = "error"
)

// UnknownProtocol is the terminal protocol classification for transactions
// touching no known program.
const UnknownProtocol = "Unknown Protocol"

// DetermineTransactionType pattern-matches instruction logs, first match
// wins. Matching is case-sensitive on purpose: program logs capitalize
// instruction names ("Instruction: Swap") while anchor method names stay
// snake_case ("deposit_all_token_types"), and that difference keeps the
// generic branches from swallowing the specific ones.
//
// "Withdraw" is ambiguous between a lending withdrawal and an unstake; it is
// read as an unstake only when a liquid-staking program is involved.
func DetermineTransactionType(logs []string, programIDs map[string]struct{}) TransactionType {
	joined := strings.Join(logs, "\n")
	has := func(patterns ...string) bool {
		for _, p := range patterns {
			if strings.Contains(joined, p) {
				return true
			}
		}
		return false
	}
	liquidStaking := containsAnyProgram(programIDs, MarinadeProgram, LidoProgram)

	switch {
	case has("Swap", "swap_base_in", "swap_base_out"):
		return TypeSwap
	case has("Deposit", "Supply"):
		return TypeDeposit
	case has("Withdraw"):
		if liquidStaking {
			return TypeUnstake
		}
		return TypeWithdraw
	case has("AddLiquidity", "add_liquidity", "IncreaseLiquidity", "deposit_all_token_types"):
		return TypeAddLiquidity
	case has("RemoveLiquidity", "remove_liquidity", "DecreaseLiquidity", "withdraw_all_token_types"):
		return TypeRemoveLiquidity
	case has("Stake"):
		return TypeStake
	case has("Unstake", "unstake") && liquidStaking:
		return TypeUnstake
	case has("Borrow"):
		return TypeBorrow
	case has("Repay"):
		return TypeRepay
	case has("Transfer"):
		return TypeTransfer
	case has("CreateAccount", "InitializeAccount"):
		return TypeAccountCreation
	default:
		return TypeUnknown
	}
}

// protocolPriority fixes the attribution order: aggregators (newer version
// first) beat the AMMs they route through, AMM families beat lending and
// staking, and the token/system programs only match when nothing richer did.
var protocolPriority = []string{
	JupiterV6Program,
	JupiterV4Program,
	RaydiumAMMProgram,
	RaydiumCLMMProgram,
	OrcaWhirlpoolProgram,
	SolendProgram,
	MarinadeProgram,
	LidoProgram,
}

// IdentifyProtocol maps the involved-program set to a single protocol name.
func (a *Analyzer) IdentifyProtocol(programIDs map[string]struct{}) string {
	for _, addr := range protocolPriority {
		if _, ok := programIDs[addr]; !ok {
			continue
		}
		if info, ok := a.registry.Lookup(addr); ok {
			return info.Name
		}
	}

	_, hasToken := programIDs[TokenProgram]
	_, hasSystem := programIDs[SystemProgram]
	switch {
	case hasToken && !hasSystem:
		if info, ok := a.registry.Lookup(TokenProgram); ok {
			return info.Name
		}
	case hasSystem:
		if info, ok := a.registry.Lookup(SystemProgram); ok {
			return info.Name
		}
	}
	return UnknownProtocol
}
