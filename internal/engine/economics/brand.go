// Package economics derives brand-side fee income and owner-side returns
// from a feasibility projection.
package economics

import (
	"math"
	"strings"

	"deal-compass-workers/internal/models"
)

// Support-cost overhead as a share of gross fees.
const (
	ManagementSupportRatio = 0.18
	FranchiseSupportRatio  = 0.06
)

// NormalizeContractType maps anything that is not a franchise onto management.
func NormalizeContractType(contractType string) string {
	if strings.EqualFold(strings.TrimSpace(contractType), models.ContractFranchise) {
		return models.ContractFranchise
	}
	return models.ContractManagement
}

func SupportRatio(contractType string) float64 {
	if NormalizeContractType(contractType) == models.ContractFranchise {
		return FranchiseSupportRatio
	}
	return ManagementSupportRatio
}

// ComputeBrandEconomics reads the stabilized year and prices the brand's fee stream.
func ComputeBrandEconomics(in models.FeasibilityInputs, out models.FeasibilityOutputs, contractType string, keyMoney float64) models.BrandEconomics {
	contract := NormalizeContractType(contractType)
	be := models.BrandEconomics{
		ContractType:     contract,
		SupportCostRatio: SupportRatio(contract),
	}

	stab, ok := out.StabilizedYear()
	if !ok {
		return be
	}

	switch contract {
	case models.ContractFranchise:
		// franchise fees exclude F&B and other ancillary revenue
		be.RoyaltyFeeAnnual = math.Round(stab.RoomsRevenue * in.RoyaltyPct)
		be.MarketingFeeAnnual = math.Round(stab.RoomsRevenue * in.MarketingPct)
		be.DistributionFeeAnnual = math.Round(stab.RoomsRevenue * in.DistributionPct)
		be.GrossFees = be.RoyaltyFeeAnnual + be.MarketingFeeAnnual + be.DistributionFeeAnnual
	default:
		be.BaseFeeAnnual = math.Round(stab.TotalRevenue * in.BaseFee)
		be.IncentiveFeeAnnual = math.Round(stab.GOP * in.IncentiveFee)
		be.GrossFees = be.BaseFeeAnnual + be.IncentiveFeeAnnual
	}

	be.SupportCost = math.Round(be.GrossFees * be.SupportCostRatio)
	be.NetFees = be.GrossFees - be.SupportCost
	if in.FXRate > 0 {
		be.NetFeesUSD = math.Round(be.NetFees / in.FXRate)
	}

	if keyMoney > 0 {
		be.KeyMoney = keyMoney
		be.KeyMoneyROI = be.NetFees / keyMoney * 100
		if be.NetFees > 0 {
			be.KeyMoneyPayback = keyMoney / be.NetFees
		}
	}
	return be
}

// TotalFeePct is the headline fee load applied to rooms revenue.
func TotalFeePct(in models.FeasibilityInputs, contractType string) float64 {
	if NormalizeContractType(contractType) == models.ContractFranchise {
		return in.RoyaltyPct + in.MarketingPct + in.DistributionPct
	}
	return in.BaseFee + in.IncentiveFee
}
