package txanalysis

import (
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

func Test_NewRecordFromParts_Normalization(t *testing.T) {
	user := solana.MustPublicKeyFromBase58(WrappedSOLMint) // any valid key
	tokenAcct := solana.MustPublicKeyFromBase58(TokenProgram)
	program := solana.MustPublicKeyFromBase58(JupiterV6Program)
	loadedW := solana.MustPublicKeyFromBase58(RaydiumAMMProgram)
	loadedR := solana.MustPublicKeyFromBase58(OrcaWhirlpoolProgram)

	tx := &solana.Transaction{
		Signatures: []solana.Signature{{}},
		Message: solana.Message{
			AccountKeys: solana.PublicKeySlice{user, tokenAcct, program},
			Header:      solana.MessageHeader{NumRequiredSignatures: 1},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: []uint16{0, 1}, Data: solana.Base58([]byte{9, 9})},
			},
		},
	}
	owner := user
	meta := &rpc.TransactionMeta{
		Fee:          5000,
		LogMessages:  []string{"Program log: Instruction: Swap"},
		PreBalances:  []uint64{1_000_000_000},
		PostBalances: []uint64{900_000_000},
		LoadedAddresses: rpc.LoadedAddresses{
			Writable: solana.PublicKeySlice{loadedW},
			ReadOnly: solana.PublicKeySlice{loadedR},
		},
		PreTokenBalances: []rpc.TokenBalance{
			{
				AccountIndex: 1,
				Mint:         tokenAcct,
				Owner:        &owner,
				UiTokenAmount: &rpc.UiTokenAmount{
					UiAmount: pointer.ToFloat64(5),
					Decimals: 6,
				},
			},
		},
		InnerInstructions: []rpc.InnerInstruction{
			{
				Index: 0,
				Instructions: []rpc.CompiledInstruction{
					// Program resolved through the loaded writable key.
					{ProgramIDIndex: 3, Accounts: []uint16{1}, Data: solana.Base58([]byte{1})},
				},
			},
		},
	}

	rec, err := NewRecordFromParts(tx, meta, 1_700_000_000)
	require.NoError(t, err)

	// Static keys first, then loaded writable, then loaded read-only.
	require.Equal(t, []string{
		user.String(), tokenAcct.String(), program.String(),
		loadedW.String(), loadedR.String(),
	}, rec.Message.AccountKeys)
	require.Equal(t, 1, rec.Message.NumRequiredSignatures)
	require.EqualValues(t, 1_700_000_000, rec.BlockTime)

	require.Len(t, rec.Message.Instructions, 1)
	ix := rec.Message.Instructions[0]
	require.Equal(t, JupiterV6Program, ix.ProgramID)
	require.Equal(t, []int{0, 1}, ix.Accounts)
	require.Equal(t, []byte{9, 9}, ix.Data)

	require.NotNil(t, rec.Meta)
	require.EqualValues(t, 5000, rec.Meta.FeeLamports)
	require.Len(t, rec.Meta.PreTokenBalances, 1)
	tb := rec.Meta.PreTokenBalances[0]
	require.Equal(t, 1, tb.AccountIndex)
	require.Equal(t, tokenAcct.String(), tb.Mint)
	require.Equal(t, user.String(), tb.Owner)
	require.InDelta(t, 5.0, tb.UIAmount, 1e-12)
	require.EqualValues(t, 6, tb.Decimals)

	require.Len(t, rec.Meta.InnerInstructions, 1)
	inner := rec.Meta.InnerInstructions[0]
	require.Equal(t, 0, inner.Index)
	require.Len(t, inner.Instructions, 1)
	require.Equal(t, RaydiumAMMProgram, inner.Instructions[0].ProgramID)
	require.Equal(t, []int{1}, inner.Instructions[0].Accounts)
	require.Equal(t, []byte{1}, inner.Instructions[0].Data)
}

func Test_NewRecordFromParts_NilMeta(t *testing.T) {
	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: solana.PublicKeySlice{solana.MustPublicKeyFromBase58(SystemProgram)},
		},
	}
	rec, err := NewRecordFromParts(tx, nil, 0)
	require.NoError(t, err)
	require.Nil(t, rec.Meta)
	require.Len(t, rec.Message.AccountKeys, 1)
}

func Test_NewRecordFromParts_NilTransaction(t *testing.T) {
	_, err := NewRecordFromParts(nil, &rpc.TransactionMeta{}, 0)
	require.Error(t, err)
}

func Test_NewRecordFromRPC_Nil(t *testing.T) {
	_, err := NewRecordFromRPC(nil)
	require.Error(t, err)
}

func Test_TokenBalanceConversion_NilFields(t *testing.T) {
	got := convertTokenBalance(rpc.TokenBalance{AccountIndex: 2, Mint: solana.MustPublicKeyFromBase58(WrappedSOLMint)})
	require.Equal(t, 2, got.AccountIndex)
	require.Empty(t, got.Owner)
	require.Zero(t, got.UIAmount)
}
