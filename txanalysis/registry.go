package txanalysis

import "sort"

// Mainnet program addresses the default registry knows about.
const (
	JupiterV6Program     = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	JupiterV4Program     = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	RaydiumAMMProgram    = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMMProgram   = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	OrcaWhirlpoolProgram = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	SolendProgram        = "So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo"
	MarinadeProgram      = "MarBmsSgKXdrN1egZf5sqe1TMai9K1rChYNDJgjq7aD"
	LidoProgram          = "CrX7kMhLC3cSsXJdT7JDgqrRVWGnUpX3gfEfxxU2NVLi"
	TokenProgram         = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	SystemProgram        = "11111111111111111111111111111111"
)

// WrappedSOLMint is the classic SPL wrapped-SOL mint.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// ProgramInfo names one on-chain program.
type ProgramInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Registry is an immutable program-address → name table. It is built once at
// startup and handed to the Analyzer; nothing mutates it afterwards, so it is
// safe to share across concurrent analyses.
type Registry struct {
	programs map[string]ProgramInfo
}

// NewRegistry builds a registry from an explicit set of entries.
func NewRegistry(infos ...ProgramInfo) *Registry {
	programs := make(map[string]ProgramInfo, len(infos))
	for _, info := range infos {
		programs[info.Address] = info
	}
	return &Registry{programs: programs}
}

// DefaultRegistry covers the protocols the detail analyzers understand.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ProgramInfo{Address: JupiterV6Program, Name: "Jupiter"},
		ProgramInfo{Address: JupiterV4Program, Name: "Jupiter"},
		ProgramInfo{Address: RaydiumAMMProgram, Name: "Raydium"},
		ProgramInfo{Address: RaydiumCLMMProgram, Name: "Raydium CLMM"},
		ProgramInfo{Address: OrcaWhirlpoolProgram, Name: "Orca"},
		ProgramInfo{Address: SolendProgram, Name: "Solend"},
		ProgramInfo{Address: MarinadeProgram, Name: "Marinade"},
		ProgramInfo{Address: LidoProgram, Name: "Lido"},
		ProgramInfo{Address: TokenProgram, Name: "SPL Token"},
		ProgramInfo{Address: SystemProgram, Name: "System Program"},
	)
}

// Lookup returns the entry for a program address, if known.
func (r *Registry) Lookup(address string) (ProgramInfo, bool) {
	info, ok := r.programs[address]
	return info, ok
}

// Describe maps an involved-program set to named entries, sorted by address
// for deterministic output. Unknown programs are still listed.
func (r *Registry) Describe(programIDs map[string]struct{}) []ProgramInfo {
	out := make([]ProgramInfo, 0, len(programIDs))
	for addr := range programIDs {
		if info, ok := r.programs[addr]; ok {
			out = append(out, info)
			continue
		}
		out = append(out, ProgramInfo{Address: addr, Name: "Unknown Program"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
