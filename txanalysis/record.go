package txanalysis

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionRecord is the canonical, read-only view of a confirmed
// transaction. Provider responses are normalized into this shape once at the
// system boundary; everything downstream only ever sees this type.
type TransactionRecord struct {
	Signature string
	BlockTime int64 // unix seconds; 0 when the node did not report it
	Meta      *Meta
	Message   *Message
}

// Meta carries the execution metadata the classification core reads.
type Meta struct {
	Err               interface{}
	FeeLamports       uint64
	LogMessages       []string
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []InnerInstructionSet
}

// TokenBalance is one pre- or post-execution token-account balance row.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	UIAmount     float64
	Decimals     uint8
}

// Message is the instruction-level view of the transaction.
type Message struct {
	AccountKeys           []string
	Instructions          []Instruction
	NumRequiredSignatures int
}

// Instruction references its program by resolved address rather than by
// account index, so consumers never have to carry the key table around.
type Instruction struct {
	ProgramID string
	Accounts  []int
	Data      []byte
}

// InnerInstructionSet groups the CPI instructions executed under the
// top-level instruction at Index.
type InnerInstructionSet struct {
	Index        int
	Instructions []Instruction
}

// NewRecordFromRPC normalizes a getTransaction response into the canonical
// record.
func NewRecordFromRPC(res *rpc.GetTransactionResult) (*TransactionRecord, error) {
	if res == nil {
		return nil, fmt.Errorf("nil transaction result")
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	var blockTime int64
	if res.BlockTime != nil {
		blockTime = int64(*res.BlockTime)
	}
	return NewRecordFromParts(tx, res.Meta, blockTime)
}

// NewRecordFromParts normalizes an already-decoded transaction plus its meta.
// Account keys loaded through address lookup tables are appended after the
// static keys, matching the index space used by balances and instructions.
func NewRecordFromParts(tx *solana.Transaction, meta *rpc.TransactionMeta, blockTime int64) (*TransactionRecord, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction")
	}

	allKeys := append(solana.PublicKeySlice{}, tx.Message.AccountKeys...)
	if meta != nil {
		allKeys = append(allKeys, meta.LoadedAddresses.Writable...)
		allKeys = append(allKeys, meta.LoadedAddresses.ReadOnly...)
	}
	keys := make([]string, len(allKeys))
	for i, k := range allKeys {
		keys[i] = k.String()
	}

	rec := &TransactionRecord{BlockTime: blockTime}
	if len(tx.Signatures) > 0 {
		rec.Signature = tx.Signatures[0].String()
	}

	msg := &Message{
		AccountKeys:           keys,
		NumRequiredSignatures: int(tx.Message.Header.NumRequiredSignatures),
	}
	for _, ix := range tx.Message.Instructions {
		msg.Instructions = append(msg.Instructions, convertInstruction(ix, keys))
	}
	rec.Message = msg

	if meta != nil {
		m := &Meta{
			Err:          meta.Err,
			FeeLamports:  meta.Fee,
			LogMessages:  meta.LogMessages,
			PreBalances:  meta.PreBalances,
			PostBalances: meta.PostBalances,
		}
		for _, b := range meta.PreTokenBalances {
			m.PreTokenBalances = append(m.PreTokenBalances, convertTokenBalance(b))
		}
		for _, b := range meta.PostTokenBalances {
			m.PostTokenBalances = append(m.PostTokenBalances, convertTokenBalance(b))
		}
		for _, inner := range meta.InnerInstructions {
			set := InnerInstructionSet{Index: int(inner.Index)}
			for _, ix := range inner.Instructions {
				set.Instructions = append(set.Instructions, convertRPCInstruction(ix, keys))
			}
			m.InnerInstructions = append(m.InnerInstructions, set)
		}
		rec.Meta = m
	}

	return rec, nil
}

func convertInstruction(ix solana.CompiledInstruction, keys []string) Instruction {
	out := Instruction{Data: []byte(ix.Data)}
	if int(ix.ProgramIDIndex) < len(keys) {
		out.ProgramID = keys[ix.ProgramIDIndex]
	}
	for _, a := range ix.Accounts {
		out.Accounts = append(out.Accounts, int(a))
	}
	return out
}

// Inner instructions come back as the RPC's own compiled-instruction type,
// which mirrors the wire shape field by field but is distinct from
// solana.CompiledInstruction; convert it the same way.
func convertRPCInstruction(ix rpc.CompiledInstruction, keys []string) Instruction {
	out := Instruction{Data: []byte(ix.Data)}
	if int(ix.ProgramIDIndex) < len(keys) {
		out.ProgramID = keys[ix.ProgramIDIndex]
	}
	for _, a := range ix.Accounts {
		out.Accounts = append(out.Accounts, int(a))
	}
	return out
}

func convertTokenBalance(b rpc.TokenBalance) TokenBalance {
	out := TokenBalance{
		AccountIndex: int(b.AccountIndex),
		Mint:         b.Mint.String(),
	}
	if b.Owner != nil {
		out.Owner = b.Owner.String()
	}
	if b.UiTokenAmount != nil {
		out.Decimals = b.UiTokenAmount.Decimals
		if b.UiTokenAmount.UiAmount != nil {
			out.UIAmount = *b.UiTokenAmount.UiAmount
		}
	}
	return out
}
