package txanalysis

// StakingDetails tags liquid-staking activity. Deeper decomposition (stake
// amounts, validator identification) is an open area; callers must not rely
// on more than the protocol tag.
type StakingDetails struct {
	Protocol string `json:"protocol"`
}

// LendingDetails tags lending-market activity. Same caveat as StakingDetails.
type LendingDetails struct {
	Protocol string `json:"protocol"`
}
