// internal/models/feasibility.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	ContractManagement = "management"
	ContractFranchise  = "franchise"
)

const (
	OpeningNewBuild          = "new_build"
	OpeningConversion        = "conversion"
	OpeningRebrand           = "rebrand"
	OpeningFranchiseTakeover = "franchise_takeover"
	OpeningAdaptiveReuse     = "adaptive_reuse"
)

// FeasibilityInputs is the flat assumption set for one projection run.
// Monetary values are in local currency; fxRate converts local to USD.
type FeasibilityInputs struct {
	Rooms           int     `json:"rooms" yaml:"rooms"`
	Segment         string  `json:"segment" yaml:"segment"`
	OpeningType     string  `json:"openingType" yaml:"openingType"`
	ADR             float64 `json:"adr" yaml:"adr"`
	Occupancy       float64 `json:"occupancy" yaml:"occupancy"`
	FnBRevenuePct   float64 `json:"fnbRevenuePct" yaml:"fnbRevenuePct"`
	OtherRevenuePct float64 `json:"otherRevenuePct" yaml:"otherRevenuePct"`
	RampUpYears     int     `json:"rampUpYears" yaml:"rampUpYears"`
	CapexPerKey     float64 `json:"capexPerKey" yaml:"capexPerKey"`
	FFEPerKey       float64 `json:"ffePerKey" yaml:"ffePerKey"`

	// management contract
	BaseFee      float64 `json:"baseFee" yaml:"baseFee"`
	IncentiveFee float64 `json:"incentiveFee" yaml:"incentiveFee"`

	// franchise contract
	RoyaltyPct      float64 `json:"royaltyPct" yaml:"royaltyPct"`
	MarketingPct    float64 `json:"marketingPct" yaml:"marketingPct"`
	DistributionPct float64 `json:"distributionPct" yaml:"distributionPct"`

	GOPMargin float64 `json:"gopMargin" yaml:"gopMargin"`
	FXRate    float64 `json:"fxRate" yaml:"fxRate"`

	KeyMoney     float64 `json:"keyMoney,omitempty" yaml:"keyMoney"`
	DebtEnabled  bool    `json:"debtEnabled,omitempty" yaml:"debtEnabled"`
	LTV          float64 `json:"ltv,omitempty" yaml:"ltv"`
	InterestRate float64 `json:"interestRate,omitempty" yaml:"interestRate"`
	CapRate      float64 `json:"capRate,omitempty" yaml:"capRate"`
}

// FeasibilityYear is one projected year. Money fields are whole currency units.
type FeasibilityYear struct {
	Year         int     `json:"year"`
	Occupancy    float64 `json:"occupancy"`
	RoomNights   float64 `json:"roomNights"`
	RoomsRevenue float64 `json:"roomsRevenue"`
	TotalRevenue float64 `json:"totalRevenue"`
	GOP          float64 `json:"gop"`
	Fees         float64 `json:"fees"`
	NOI          float64 `json:"noi"`
}

// Payback is a payback period in years. +Inf means the investment never pays back.
type Payback float64

const infinityLiteral = "Infinity"

// InfinitePayback is reported whenever average NOI is not positive.
func InfinitePayback() Payback {
	return Payback(math.Inf(1))
}

func (p Payback) IsInfinite() bool {
	return math.IsInf(float64(p), 1)
}

func (p Payback) MarshalJSON() ([]byte, error) {
	if p.IsInfinite() {
		return []byte(strconv.Quote(infinityLiteral)), nil
	}
	return []byte(strconv.FormatFloat(float64(p), 'f', -1, 64)), nil
}

func (p *Payback) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != infinityLiteral {
			return fmt.Errorf("invalid payback literal %q", s)
		}
		*p = InfinitePayback()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid payback: %w", err)
	}
	*p = Payback(f)
	return nil
}

func (p Payback) String() string {
	if p.IsInfinite() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(p), 'f', 1, 64) + " years"
}

// Sensitivity scenario names.
const (
	ScenarioOccupancyDown = "occupancy_down_10"
	ScenarioADRDown       = "adr_down_10"
	ScenarioCapexUp       = "capex_up_15"
	ScenarioFXUp          = "fx_up_15"
	ScenarioSevere        = "severe_adr_down_10_occupancy_down_15"
)

// Scenario is one perturbed re-run of the projection.
type Scenario struct {
	Name          string            `json:"name"`
	Years         []FeasibilityYear `json:"years"`
	TotalCapex    float64           `json:"totalCapex"`
	SimplePayback Payback           `json:"simplePayback"`
	FXRate        float64           `json:"fxRate"`
	AverageNOI    float64           `json:"averageNoi"`
	AverageNOIUSD float64           `json:"averageNoiUsd"`
	NOIDeltaPct   float64           `json:"noiDeltaPct"`
}

type FeasibilityOutputs struct {
	Years         []FeasibilityYear   `json:"years"`
	TotalCapex    float64             `json:"totalCapex"`
	AverageNOI    float64             `json:"averageNoi"`
	SimplePayback Payback             `json:"simplePayback"`
	Sensitivities map[string]Scenario `json:"sensitivities"`
}

// StabilizedYear returns the third projected year, or the last one when fewer exist.
func (o FeasibilityOutputs) StabilizedYear() (FeasibilityYear, bool) {
	return StabilizedYearOf(o.Years)
}

func StabilizedYearOf(years []FeasibilityYear) (FeasibilityYear, bool) {
	switch {
	case len(years) == 0:
		return FeasibilityYear{}, false
	case len(years) >= 3:
		return years[2], true
	default:
		return years[len(years)-1], true
	}
}

type BrandEconomics struct {
	ContractType          string  `json:"contractType"`
	BaseFeeAnnual         float64 `json:"baseFeeAnnual"`
	IncentiveFeeAnnual    float64 `json:"incentiveFeeAnnual"`
	RoyaltyFeeAnnual      float64 `json:"royaltyFeeAnnual"`
	MarketingFeeAnnual    float64 `json:"marketingFeeAnnual"`
	DistributionFeeAnnual float64 `json:"distributionFeeAnnual"`
	GrossFees             float64 `json:"grossFees"`
	SupportCostRatio      float64 `json:"supportCostRatio"`
	SupportCost           float64 `json:"supportCost"`
	NetFees               float64 `json:"netFees"`
	NetFeesUSD            float64 `json:"netFeesUsd"`
	KeyMoney              float64 `json:"keyMoney"`
	KeyMoneyROI           float64 `json:"keyMoneyRoi"`
	KeyMoneyPayback       float64 `json:"keyMoneyPayback"`
}

type OwnerEconomics struct {
	StabilizedNOI        float64 `json:"stabilizedNoi"`
	TotalCapex           float64 `json:"totalCapex"`
	YieldOnCost          float64 `json:"yieldOnCost"`
	DebtEnabled          bool    `json:"debtEnabled"`
	DebtAmount           float64 `json:"debtAmount"`
	EquityAmount         float64 `json:"equityAmount"`
	AnnualDebtService    float64 `json:"annualDebtService"`
	DSCR                 float64 `json:"dscr"`
	ExitValue            float64 `json:"exitValue"`
	UnleveragedIRR       float64 `json:"unleveragedIrr"`
	UnleveragedConverged bool    `json:"unleveragedIrrConverged"`
	LeveragedIRR         float64 `json:"leveragedIrr"`
	LeveragedConverged   bool    `json:"leveragedIrrConverged"`
	MinYieldOnCost       float64 `json:"minYieldOnCost"`
	BreakEvenOccupancy   float64 `json:"breakEvenOccupancy"`
	BreakEvenADR         float64 `json:"breakEvenAdr"`
}
