package model

// RiskModelConfig holds the walk-forward risk-off model parameters.
// Constructed once per run from configuration and never mutated.
type RiskModelConfig struct {
	HorizonDays             int
	FwdReturnThreshold      float64
	FwdMaxDrawdownThreshold float64
	MinTrainYears           int
	RegularizationC         float64
}
