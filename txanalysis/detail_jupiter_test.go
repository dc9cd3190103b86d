package txanalysis

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func Test_AnalyzeAggregatorSwap_Partition(t *testing.T) {
	a := newTestAnalyzer(nil, nil)
	activity := &FinancialActivity{
		TokenChanges: []TokenBalanceChange{
			{Mint: testMintA, Symbol: "ABC", Change: -2},
			{Mint: testMintB, Symbol: "XYZ", Change: 80},
		},
	}
	details := a.analyzeAggregatorSwap(&TransactionRecord{}, activity)

	require.Equal(t, "Jupiter", details.Aggregator)
	require.Len(t, details.Inputs, 1)
	require.Len(t, details.Outputs, 1)
	require.InDelta(t, 2.0, details.Inputs[0].Amount, 1e-12)
	require.InDelta(t, 80.0, details.Outputs[0].Amount, 1e-12)

	require.NotNil(t, details.ExchangeRate)
	require.InDelta(t, 40.0, details.ExchangeRate.Rate, 1e-9)
	require.Equal(t, "ABC", details.ExchangeRate.InputSymbol)
	require.Equal(t, "XYZ", details.ExchangeRate.OutputSymbol)
}

func Test_AnalyzeAggregatorSwap_FoldsFeePayerSOL(t *testing.T) {
	a := newTestAnalyzer(nil, nil)
	activity := &FinancialActivity{
		TokenChanges: []TokenBalanceChange{
			{Mint: testMintB, Symbol: "XYZ", Change: 80},
		},
		SolChanges: []NativeBalanceChange{
			{AccountIndex: 0, Change: -1.5},
			{AccountIndex: 3, Change: 1.4}, // pool side, not the user
		},
	}
	details := a.analyzeAggregatorSwap(&TransactionRecord{}, activity)

	require.Len(t, details.Inputs, 1)
	require.Equal(t, WrappedSOLMint, details.Inputs[0].Mint)
	require.Equal(t, "SOL", details.Inputs[0].Symbol)
	require.InDelta(t, 1.5, details.Inputs[0].Amount, 1e-12)
	require.Len(t, details.Outputs, 1)
}

func Test_ParseRouteFromLogs(t *testing.T) {
	logs := []string{
		"Program JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4 invoke [1]",
		"Program log: Route: Raydium",
		"Program log: in: 100",
		"Program log: out: 250",
		"Program log: AMM: Orca",
		"Program log: in: 250",
		"Program log: out: 310",
		"Program log: something unrelated",
	}
	route := parseRouteFromLogs(logs)
	require.Len(t, route, 2)
	require.Equal(t, RouteStep{AMM: "Raydium", InAmount: 100, OutAmount: 250}, route[0])
	require.Equal(t, RouteStep{AMM: "Orca", InAmount: 250, OutAmount: 310}, route[1])

	// Amount lines before any hop announcement are dropped.
	require.Empty(t, parseRouteFromLogs([]string{"Program log: in: 42"}))
}

func Test_ParsePriceImpact(t *testing.T) {
	impact := parsePriceImpact([]string{"Program log: price_impact_pct: 0.12"})
	require.NotNil(t, impact)
	require.InDelta(t, 0.12, *impact, 1e-12)

	require.Nil(t, parsePriceImpact([]string{"Program log: Instruction: Swap"}))
}

func Test_RouteFromJupiterEvents(t *testing.T) {
	amm := solana.MustPublicKeyFromBase58(RaydiumAMMProgram)
	inMint := solana.MustPublicKeyFromBase58(WrappedSOLMint)
	outMint := solana.MustPublicKeyFromBase58(TokenProgram)

	data := append([]byte{}, jupiterRouteEventDiscriminator[:]...)
	data = append(data, amm[:]...)
	data = append(data, inMint[:]...)
	data = binary.LittleEndian.AppendUint64(data, 1000)
	data = append(data, outMint[:]...)
	data = binary.LittleEndian.AppendUint64(data, 2500)

	rec := &TransactionRecord{
		Meta: &Meta{
			InnerInstructions: []InnerInstructionSet{
				{Index: 0, Instructions: []Instruction{
					{ProgramID: JupiterV6Program, Data: data},
					{ProgramID: TokenProgram, Data: []byte{3, 0, 0}}, // ignored
				}},
			},
		},
	}

	a := newTestAnalyzer(nil, nil)
	route := a.routeFromJupiterEvents(rec)
	require.Len(t, route, 1)
	require.Equal(t, amm.String(), route[0].AMM)
	require.EqualValues(t, 1000, route[0].InAmount)
	require.EqualValues(t, 2500, route[0].OutAmount)
}

func Test_AnalyzeAggregatorSwap_EventFallback(t *testing.T) {
	amm := solana.MustPublicKeyFromBase58(OrcaWhirlpoolProgram)
	inMint := solana.MustPublicKeyFromBase58(WrappedSOLMint)
	outMint := solana.MustPublicKeyFromBase58(TokenProgram)

	data := append([]byte{}, jupiterRouteEventDiscriminator[:]...)
	data = append(data, amm[:]...)
	data = append(data, inMint[:]...)
	data = binary.LittleEndian.AppendUint64(data, 7)
	data = append(data, outMint[:]...)
	data = binary.LittleEndian.AppendUint64(data, 9)

	rec := &TransactionRecord{
		Meta: &Meta{
			LogMessages: []string{"Program log: Instruction: Swap"}, // no route lines
			InnerInstructions: []InnerInstructionSet{
				{Index: 0, Instructions: []Instruction{
					{ProgramID: JupiterV6Program, Data: data},
				}},
			},
		},
	}

	a := newTestAnalyzer(nil, nil)
	details := a.analyzeAggregatorSwap(rec, &FinancialActivity{})
	require.Len(t, details.Route, 1)
	require.Equal(t, amm.String(), details.Route[0].AMM)
}
