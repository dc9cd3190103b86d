package txanalysis

// IdentifyInvolvedPrograms returns the set of distinct program addresses
// referenced by the transaction's top-level and inner instructions. Inner
// instructions matter: an aggregator routing through an AMM invokes it only
// via CPI, so the AMM never shows up at the top level.
func IdentifyInvolvedPrograms(rec *TransactionRecord) map[string]struct{} {
	programs := make(map[string]struct{})
	if rec == nil {
		return programs
	}
	if rec.Message != nil {
		for _, ix := range rec.Message.Instructions {
			if ix.ProgramID != "" {
				programs[ix.ProgramID] = struct{}{}
			}
		}
	}
	if rec.Meta != nil {
		for _, set := range rec.Meta.InnerInstructions {
			for _, ix := range set.Instructions {
				if ix.ProgramID != "" {
					programs[ix.ProgramID] = struct{}{}
				}
			}
		}
	}
	return programs
}

func containsAnyProgram(programs map[string]struct{}, addresses ...string) bool {
	for _, addr := range addresses {
		if _, ok := programs[addr]; ok {
			return true
		}
	}
	return false
}
