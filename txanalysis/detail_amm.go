package txanalysis

import (
	"crypto/sha256"
	"strings"
)

// AMMDetails explains a transaction attributed to an AMM family.
type AMMDetails struct {
	Protocol              string          `json:"protocol"`
	Operation             TransactionType `json:"operation"`
	ConcentratedLiquidity bool            `json:"concentratedLiquidity"`
}

// anchorDiscriminator8 is the first 8 bytes of sha256("global:"+name), the
// prefix anchor programs put on every instruction.
func anchorDiscriminator8(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

var addLiquidityAnchors = anchorSet(
	"add_liquidity",
	"add_liquidity_by_strategy",
	"add_liquidity_by_strategy2",
	"add_liquidity_with_slippage",
	"increase_liquidity",
	"increase_liquidity_v2",
)

var removeLiquidityAnchors = anchorSet(
	"remove_liquidity",
	"remove_liquidity_by_strategy",
	"remove_liquidity_by_strategy2",
	"decrease_liquidity",
	"decrease_liquidity_v2",
	"close_position",
	"withdraw_liquidity",
	"withdraw_one_token",
)

func anchorSet(names ...string) map[[8]byte]struct{} {
	m := make(map[[8]byte]struct{}, len(names))
	for _, n := range names {
		m[anchorDiscriminator8(n)] = struct{}{}
	}
	return m
}

// analyzeAMM classifies the AMM sub-operation from logs, falling back to
// anchor discriminators on the AMM's own instructions when the log text is
// truncated or missing, and tags concentrated-liquidity pool usage.
func analyzeAMM(rec *TransactionRecord, programIDs map[string]struct{}, protocol string) *AMMDetails {
	details := &AMMDetails{
		Protocol:              protocol,
		Operation:             TypeUnknown,
		ConcentratedLiquidity: containsAnyProgram(programIDs, RaydiumCLMMProgram),
	}

	var logs []string
	if rec != nil && rec.Meta != nil {
		logs = rec.Meta.LogMessages
	}
	details.Operation = classifyAMMOperation(logs)

	if details.Operation == TypeUnknown {
		switch {
		case hasAnchorPrefix(rec, addLiquidityAnchors):
			details.Operation = TypeAddLiquidity
		case hasAnchorPrefix(rec, removeLiquidityAnchors):
			details.Operation = TypeRemoveLiquidity
		}
	}

	return details
}

func classifyAMMOperation(logs []string) TransactionType {
	joined := strings.Join(logs, "\n")
	has := func(patterns ...string) bool {
		for _, p := range patterns {
			if strings.Contains(joined, p) {
				return true
			}
		}
		return false
	}
	switch {
	case has("Swap", "swap_base_in", "swap_base_out"):
		return TypeSwap
	case has("AddLiquidity", "add_liquidity", "IncreaseLiquidity", "deposit_all_token_types"):
		return TypeAddLiquidity
	case has("RemoveLiquidity", "remove_liquidity", "DecreaseLiquidity", "withdraw_all_token_types"):
		return TypeRemoveLiquidity
	case has("Stake"):
		return TypeStake
	case has("Harvest", "CollectReward", "collect_fee"):
		return TypeHarvest
	default:
		return TypeUnknown
	}
}

// hasAnchorPrefix reports whether any outer or inner instruction of a known
// AMM program starts with one of the given anchor discriminators.
func hasAnchorPrefix(rec *TransactionRecord, prefixes map[[8]byte]struct{}) bool {
	if rec == nil {
		return false
	}
	match := func(ix Instruction) bool {
		if !isAMMProgram(ix.ProgramID) || len(ix.Data) < 8 {
			return false
		}
		var prefix [8]byte
		copy(prefix[:], ix.Data[:8])
		_, ok := prefixes[prefix]
		return ok
	}
	if rec.Message != nil {
		for _, ix := range rec.Message.Instructions {
			if match(ix) {
				return true
			}
		}
	}
	if rec.Meta != nil {
		for _, set := range rec.Meta.InnerInstructions {
			for _, ix := range set.Instructions {
				if match(ix) {
					return true
				}
			}
		}
	}
	return false
}

func isAMMProgram(address string) bool {
	switch address {
	case RaydiumAMMProgram, RaydiumCLMMProgram, OrcaWhirlpoolProgram:
		return true
	default:
		return false
	}
}
