package risk

import (
	"math"

	"riskledger/market"
	"riskledger/orders"
)

// RiskLevel buckets the planned risk as a fraction of balance.
type RiskLevel string

const (
	Low     RiskLevel = "low"
	Medium  RiskLevel = "medium"
	High    RiskLevel = "high"
	Extreme RiskLevel = "extreme"
)

// Assessment is a computed projection for a proposed trade. It is derived
// fresh on every call and never stored.
type Assessment struct {
	PositionSize    float64 // lots
	RiskAmount      float64
	RiskPercent     float64
	MarginRequired  float64
	PotentialProfit float64
	PotentialLoss   float64
	RewardRatio     float64
	Level           RiskLevel
}

// Calculator derives risk assessments. PipValue is the pluggable pip-to-USD
// conversion; it defaults to market.DefaultPipValue.
type Calculator struct {
	PipValue market.PipValuer
}

func NewCalculator() Calculator {
	return Calculator{PipValue: market.DefaultPipValue}
}

func (c Calculator) pipValue(symbol string) float64 {
	if c.PipValue == nil {
		return market.DefaultPipValue(symbol)
	}
	return c.PipValue(symbol)
}

// MarginRequired computes the margin for a trade of the given volume (lots)
// at the given price.
func MarginRequired(volume, price float64, acct Context) float64 {
	if acct.Leverage <= 0 {
		return 0
	}
	return volume * market.LotSize * price / acct.Leverage
}

// Assess projects the risk of a ticket filled at entry. Risk amount is
// percentage-based when the ticket carries a risk percentage, otherwise
// derived from the stop-loss distance.
func (c Calculator) Assess(t orders.Ticket, entry float64, acct Context) Assessment {
	pip := market.PipSize(t.Symbol)
	pv := c.pipValue(t.Symbol)

	var stopPips, targetPips float64
	if t.StopLoss != nil {
		stopPips = math.Abs(entry-*t.StopLoss) / pip
	}
	if t.TakeProfit != nil {
		targetPips = math.Abs(*t.TakeProfit-entry) / pip
	}

	potentialLoss := stopPips * pv * t.Volume
	potentialProfit := targetPips * pv * t.Volume

	riskAmount := potentialLoss
	if t.RiskPercent != nil {
		riskAmount = acct.Balance * *t.RiskPercent / 100
	}

	var rewardRatio float64
	if stopPips > 0 {
		rewardRatio = targetPips / stopPips
	}

	var riskPct float64
	if acct.Balance > 0 {
		riskPct = riskAmount / acct.Balance * 100
	}

	return Assessment{
		PositionSize:    t.Volume,
		RiskAmount:      riskAmount,
		RiskPercent:     riskPct,
		MarginRequired:  MarginRequired(t.Volume, entry, acct),
		PotentialProfit: potentialProfit,
		PotentialLoss:   potentialLoss,
		RewardRatio:     rewardRatio,
		Level:           LevelFor(riskPct),
	}
}

// LevelFor buckets a risk percentage of balance.
func LevelFor(riskPct float64) RiskLevel {
	switch {
	case riskPct <= 1:
		return Low
	case riskPct <= 3:
		return Medium
	case riskPct <= 5:
		return High
	default:
		return Extreme
	}
}

// SizeByRisk computes the volume (lots) that risks riskPct of the balance
// over a stop of stopPips. This backs the position-sizer surface so every
// sizing call site shares one formula.
func (c Calculator) SizeByRisk(symbol string, stopPips, riskPct float64, acct Context) (lots, riskAmount float64) {
	if stopPips <= 0 || riskPct <= 0 {
		return 0, 0
	}
	riskAmount = acct.Balance * riskPct / 100
	lots = riskAmount / (stopPips * c.pipValue(symbol))
	return lots, riskAmount
}
