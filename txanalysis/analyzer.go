package txanalysis

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Analyzer composes program extraction, balance reconstruction, type and
// protocol classification, and protocol detail analysis into one call. It
// holds no mutable state: concurrent Analyze calls on different records are
// independent.
type Analyzer struct {
	registry *Registry
	metadata TokenMetadataProvider
	prices   PriceResolver
	log      *logrus.Logger
}

// NewAnalyzer wires an analyzer. Registry and logger fall back to defaults
// when nil; metadata and price providers are optional and their absence just
// means degraded enrichment.
func NewAnalyzer(registry *Registry, metadata TokenMetadataProvider, prices PriceResolver, log *logrus.Logger) *Analyzer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}
	return &Analyzer{
		registry: registry,
		metadata: metadata,
		prices:   prices,
		log:      log,
	}
}

// AnalysisResult is the final structured classification of one transaction.
type AnalysisResult struct {
	Protocol          string             `json:"protocol,omitempty"`
	Type              TransactionType    `json:"type"`
	FinancialActivity *FinancialActivity `json:"financialActivity,omitempty"`
	ProgramIDs        []ProgramInfo      `json:"programIds,omitempty"`
	ProtocolDetails   interface{}        `json:"protocolDetails,omitempty"`
	UserAddress       string             `json:"userAddress,omitempty"`
	Timestamp         string             `json:"timestamp,omitempty"`

	// Degradation fields. Reason is set on the unknown/incomplete path,
	// Error/ErrorDetails on the fault path.
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}

// Analyze classifies one transaction record. It never returns an error or
// panics: incomplete input degrades to an "unknown" result and any internal
// fault is caught here and surfaced as an "error" result. This is the single
// error boundary of the classification pipeline.
func (a *Analyzer) Analyze(ctx context.Context, rec *TransactionRecord) (result *AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("classification pipeline fault: %v", r)
			result = &AnalysisResult{
				Type:         TypeError,
				Error:        "classification failed",
				ErrorDetails: fmt.Sprint(r),
			}
		}
	}()

	if rec == nil || rec.Message == nil || rec.Meta == nil {
		return &AnalysisResult{Type: TypeUnknown, Reason: "incomplete transaction data"}
	}

	programIDs := IdentifyInvolvedPrograms(rec)
	activity := a.ReconstructFinancialActivity(ctx, rec)
	txType := DetermineTransactionType(rec.Meta.LogMessages, programIDs)
	protocol := a.IdentifyProtocol(programIDs)

	result = &AnalysisResult{
		Protocol:          protocol,
		Type:              txType,
		FinancialActivity: activity,
		ProgramIDs:        a.registry.Describe(programIDs),
		ProtocolDetails:   a.analyzeProtocolDetails(rec, activity, programIDs),
		UserAddress:       findUserAddress(rec),
	}
	if rec.BlockTime > 0 {
		result.Timestamp = time.Unix(rec.BlockTime, 0).UTC().Format(time.RFC3339)
	}
	return result
}

// analyzeProtocolDetails dispatches to the analyzer for the protocol family
// that won attribution. Returns nil for families without an analyzer.
func (a *Analyzer) analyzeProtocolDetails(rec *TransactionRecord, activity *FinancialActivity, programIDs map[string]struct{}) interface{} {
	switch {
	case containsAnyProgram(programIDs, JupiterV6Program, JupiterV4Program):
		return a.analyzeAggregatorSwap(rec, activity)
	case containsAnyProgram(programIDs, RaydiumAMMProgram, RaydiumCLMMProgram):
		return analyzeAMM(rec, programIDs, "Raydium")
	case containsAnyProgram(programIDs, OrcaWhirlpoolProgram):
		return analyzeAMM(rec, programIDs, "Orca")
	case containsAnyProgram(programIDs, SolendProgram):
		return &LendingDetails{Protocol: "Solend"}
	case containsAnyProgram(programIDs, MarinadeProgram):
		return &StakingDetails{Protocol: "Marinade"}
	case containsAnyProgram(programIDs, LidoProgram):
		return &StakingDetails{Protocol: "Lido"}
	default:
		return nil
	}
}

// findUserAddress returns the first signer, the conventional fee payer.
func findUserAddress(rec *TransactionRecord) string {
	if rec == nil || rec.Message == nil {
		return ""
	}
	if rec.Message.NumRequiredSignatures > 0 && len(rec.Message.AccountKeys) > 0 {
		return rec.Message.AccountKeys[0]
	}
	return ""
}
