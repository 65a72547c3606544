package tariff

// Tier is one of the four time-of-use charge buckets the Powerwall understands.
// Tiers are ordered from the cheapest expected bucket to the most expensive.
type Tier int

const (
	SuperOffPeak Tier = iota
	OffPeak
	PartialPeak
	OnPeak
)

// TierCount is the number of tiers, and one more than the number of thresholds
const TierCount = 4

// Tiers lists every tier in classification order
var Tiers = [TierCount]Tier{SuperOffPeak, OffPeak, PartialPeak, OnPeak}

var tierNames = [TierCount]string{"SUPER_OFF_PEAK", "OFF_PEAK", "PARTIAL_PEAK", "ON_PEAK"}

// String returns the charge name used in the tariff document
func (t Tier) String() string {
	if t < 0 || int(t) >= TierCount {
		return "UNKNOWN"
	}
	return tierNames[t]
}
