// Package pricing maps a service tier onto a review price and turnaround
// commitment. The table is a business contract: quick and premium both
// promise fast turnaround at different price points, standard is the cheap
// slow lane. Keep the numbers exactly as published.
package pricing

import "time"

// Tier identifies one of the three published service levels.
type Tier string

const (
	TierQuick    Tier = "quick"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Plan bundles the price and turnaround for a tier.
type Plan struct {
	Name       string
	Price      int64
	Turnaround time.Duration
}

var plans = map[Tier]Plan{
	TierQuick:    {Name: "Quick", Price: 199, Turnaround: 360 * time.Minute},
	TierStandard: {Name: "Standard", Price: 499, Turnaround: 1440 * time.Minute},
	TierPremium:  {Name: "Premium", Price: 999, Turnaround: 120 * time.Minute},
}

// Resolve returns the plan for the tier. Unknown or empty tiers fall back to
// standard rather than erroring, matching the published behavior.
func Resolve(tier Tier) Plan {
	if p, ok := plans[tier]; ok {
		return p
	}
	return plans[TierStandard]
}

// Normalize returns the tier itself when recognized, standard otherwise.
func Normalize(tier Tier) Tier {
	if _, ok := plans[tier]; ok {
		return tier
	}
	return TierStandard
}

// Deadline computes the SLA deadline for a review requested at the given time.
func Deadline(tier Tier, now time.Time) time.Time {
	return now.Add(Resolve(tier).Turnaround)
}
