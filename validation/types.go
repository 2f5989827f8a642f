package validation

// ReportValidationResult holds the outcome of each sealed-report check.
type ReportValidationResult struct {
	SignatureValid    bool
	RunMatch          bool
	BidHashValid      bool
	WeightsHashValid  bool
	EventsHashValid   bool
	WinnerValid       bool
	ScoresValid       bool
	ValidationDetails []string
}

// IsValid returns true if all checks passed
func (r *ReportValidationResult) IsValid() bool {
	return r.SignatureValid && r.RunMatch && r.BidHashValid && r.WeightsHashValid &&
		r.EventsHashValid && r.WinnerValid && r.ScoresValid
}
