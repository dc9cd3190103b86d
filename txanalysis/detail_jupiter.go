package txanalysis

import (
	"bytes"
	"regexp"
	"strconv"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapLeg is one side of a swap, in ui units.
type SwapLeg struct {
	Mint   string  `json:"mint"`
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// RouteStep is one hop of a routed swap, amounts in raw base units as the
// chain logs them.
type RouteStep struct {
	AMM       string `json:"amm"`
	InAmount  uint64 `json:"inAmount,omitempty"`
	OutAmount uint64 `json:"outAmount,omitempty"`
}

// ExchangeRate is the implied output-per-input rate of a single-pair swap.
type ExchangeRate struct {
	Rate         float64 `json:"rate"`
	InputSymbol  string  `json:"inputSymbol"`
	OutputSymbol string  `json:"outputSymbol"`
}

// AggregatorSwapDetails is the structured explanation of an aggregator swap.
type AggregatorSwapDetails struct {
	Aggregator     string        `json:"aggregator"`
	Inputs         []SwapLeg     `json:"inputs"`
	Outputs        []SwapLeg     `json:"outputs"`
	ExchangeRate   *ExchangeRate `json:"exchangeRate,omitempty"`
	Route          []RouteStep   `json:"route,omitempty"`
	PriceImpactPct *float64      `json:"priceImpactPct,omitempty"`
}

// Anchor event discriminator for the Jupiter route event, as emitted via CPI
// into the program itself.
var jupiterRouteEventDiscriminator = [16]byte{228, 69, 165, 46, 81, 203, 154, 29, 64, 198, 205, 232, 38, 8, 113, 226}

type jupiterRouteEvent struct {
	Amm          solana.PublicKey
	InputMint    solana.PublicKey
	InputAmount  uint64
	OutputMint   solana.PublicKey
	OutputAmount uint64
}

// Best-effort log heuristics. The chain only emits the route as unstructured
// text, so none of this is contractual; lines that don't match are ignored.
var (
	routeAMMRe    = regexp.MustCompile(`^Program log:\s*(?:Route|AMM)\s*:\s*(.+?)\s*$`)
	routeInRe     = regexp.MustCompile(`\bin:\s*(\d+)`)
	routeOutRe    = regexp.MustCompile(`\bout:\s*(\d+)`)
	priceImpactRe = regexp.MustCompile(`(?i)price[ _]impact(?:_pct)?\s*:?\s*(-?\d+(?:\.\d+)?)\s*%?`)
)

// analyzeAggregatorSwap partitions the reconstructed balance changes into
// swap inputs (spent) and outputs (received), folds a material native-SOL
// move of the fee payer in as a synthetic wrapped-SOL leg, and reconstructs
// the multi-hop route from logs, falling back to the decoded route event.
func (a *Analyzer) analyzeAggregatorSwap(rec *TransactionRecord, activity *FinancialActivity) *AggregatorSwapDetails {
	details := &AggregatorSwapDetails{
		Aggregator: "Jupiter",
		Inputs:     []SwapLeg{},
		Outputs:    []SwapLeg{},
	}
	if activity != nil {
		for _, tc := range activity.TokenChanges {
			leg := SwapLeg{Mint: tc.Mint, Symbol: tc.Symbol}
			switch {
			case tc.Change < 0:
				leg.Amount = -tc.Change
				details.Inputs = append(details.Inputs, leg)
			case tc.Change > 0:
				leg.Amount = tc.Change
				details.Outputs = append(details.Outputs, leg)
			}
		}
		// The fee payer's native move is the SOL side of a SOL<->token swap.
		for _, sc := range activity.SolChanges {
			if sc.AccountIndex != 0 {
				continue
			}
			leg := SwapLeg{Mint: WrappedSOLMint, Symbol: "SOL"}
			if sc.Change < 0 {
				leg.Amount = -sc.Change
				details.Inputs = append(details.Inputs, leg)
			} else if sc.Change > 0 {
				leg.Amount = sc.Change
				details.Outputs = append(details.Outputs, leg)
			}
			break
		}
	}

	if len(details.Inputs) == 1 && len(details.Outputs) == 1 && details.Inputs[0].Amount > 0 {
		details.ExchangeRate = &ExchangeRate{
			Rate:         details.Outputs[0].Amount / details.Inputs[0].Amount,
			InputSymbol:  details.Inputs[0].Symbol,
			OutputSymbol: details.Outputs[0].Symbol,
		}
	}

	var logs []string
	if rec != nil && rec.Meta != nil {
		logs = rec.Meta.LogMessages
	}
	details.Route = parseRouteFromLogs(logs)
	details.PriceImpactPct = parsePriceImpact(logs)

	if len(details.Route) == 0 {
		details.Route = a.routeFromJupiterEvents(rec)
	}

	return details
}

// parseRouteFromLogs runs a small state machine over the log lines: a line
// announcing an AMM opens a hop, and subsequent in:/out: amounts are
// attributed to that hop until the next announcement.
func parseRouteFromLogs(logs []string) []RouteStep {
	var route []RouteStep
	for _, line := range logs {
		if m := routeAMMRe.FindStringSubmatch(line); m != nil {
			route = append(route, RouteStep{AMM: m[1]})
			continue
		}
		if len(route) == 0 {
			continue
		}
		current := &route[len(route)-1]
		if m := routeInRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseUint(m[1], 10, 64); err == nil {
				current.InAmount += v
			}
		}
		if m := routeOutRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseUint(m[1], 10, 64); err == nil {
				current.OutAmount += v
			}
		}
	}
	return route
}

func parsePriceImpact(logs []string) *float64 {
	for _, line := range logs {
		m := priceImpactRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	return nil
}

// routeFromJupiterEvents decodes the borsh route events the aggregator emits
// as self-CPIs under its own instruction; one event per hop.
func (a *Analyzer) routeFromJupiterEvents(rec *TransactionRecord) []RouteStep {
	if rec == nil || rec.Meta == nil {
		return nil
	}
	var route []RouteStep
	for _, set := range rec.Meta.InnerInstructions {
		for _, ix := range set.Instructions {
			if ix.ProgramID != JupiterV6Program && ix.ProgramID != JupiterV4Program {
				continue
			}
			if len(ix.Data) < 16 || !bytes.Equal(ix.Data[:16], jupiterRouteEventDiscriminator[:]) {
				continue
			}
			var event jupiterRouteEvent
			decoder := ag_binary.NewBorshDecoder(ix.Data[16:])
			if err := decoder.Decode(&event); err != nil {
				a.log.Debugf("failed to decode jupiter route event: %v", err)
				continue
			}
			route = append(route, RouteStep{
				AMM:       event.Amm.String(),
				InAmount:  event.InputAmount,
				OutAmount: event.OutputAmount,
			})
		}
	}
	return route
}
