package tariff

import "time"

// Season names expected by the Powerwall tariff schema. Only FullYearSeason has periods.
const (
	FullYearSeason = "Summer"
	EmptySeason    = "Winter"
)

const (
	sunday   = 0
	saturday = 6
)

// TOUPeriod is one time-of-use period in the tariff document.
// Wrapping (toHour < fromHour) is valid.
type TOUPeriod struct {
	FromDayOfWeek int `json:"fromDayOfWeek"`
	FromHour      int `json:"fromHour"`
	FromMinute    int `json:"fromMinute"`
	ToDayOfWeek   int `json:"toDayOfWeek"`
	ToHour        int `json:"toHour"`
	ToMinute      int `json:"toMinute"`
}

// Season groups the periods of each tier for part of the year
type Season struct {
	FromMonth  int                    `json:"fromMonth,omitempty"`
	FromDay    int                    `json:"fromDay,omitempty"`
	ToMonth    int                    `json:"toMonth,omitempty"`
	ToDay      int                    `json:"toDay,omitempty"`
	TOUPeriods map[string][]TOUPeriod `json:"tou_periods"`
}

// Charge is a named fixed charge
type Charge struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Document is the tariff content pushed to the Powerwall. The sell tariff
// repeats the same shape with sell prices and no nested sell tariff.
type Document struct {
	Name          string                        `json:"name"`
	Utility       string                        `json:"utility"`
	DailyCharges  []Charge                      `json:"daily_charges"`
	DemandCharges map[string]map[string]float64 `json:"demand_charges"`
	Seasons       map[string]Season             `json:"seasons"`
	EnergyCharges map[string]map[string]float64 `json:"energy_charges"`
	SellTariff    *Document                     `json:"sell_tariff,omitempty"`
}

// NewDocument assembles the tariff document from the schedules. Periods are
// converted to wall clock times in loc and repeated on every day of the week.
func NewDocument(name, utility string, schedules []*Schedule, loc *time.Location) *Document {
	if loc == nil {
		loc = time.Local
	}

	touPeriods := make(map[string][]TOUPeriod, len(schedules))
	buyPrices := make(map[string]float64, len(schedules))
	sellPrices := make(map[string]float64, len(schedules))
	for _, s := range schedules {
		periods := make([]TOUPeriod, 0, len(s.Periods))
		for _, p := range s.Periods {
			periods = append(periods, weeklyPeriod(p, loc))
		}
		touPeriods[s.Tier.String()] = periods
		buyPrices[s.Tier.String()] = s.ImportPrice().InexactFloat64()
		sellPrices[s.Tier.String()] = s.ExportPrice().InexactFloat64()
	}

	dailyCharges := []Charge{{Name: "Charge", Amount: 0}}
	demandCharges := map[string]map[string]float64{
		"ALL":          {"ALL": 0},
		FullYearSeason: {},
		EmptySeason:    {},
	}
	seasons := map[string]Season{
		FullYearSeason: {
			FromMonth:  1,
			FromDay:    1,
			ToMonth:    12,
			ToDay:      31,
			TOUPeriods: touPeriods,
		},
		EmptySeason: {TOUPeriods: map[string][]TOUPeriod{}},
	}

	return &Document{
		Name:          name,
		Utility:       utility,
		DailyCharges:  dailyCharges,
		DemandCharges: demandCharges,
		Seasons:       seasons,
		EnergyCharges: energyCharges(buyPrices),
		SellTariff: &Document{
			Name:          name,
			Utility:       utility,
			DailyCharges:  dailyCharges,
			DemandCharges: demandCharges,
			Seasons:       seasons,
			EnergyCharges: energyCharges(sellPrices),
		},
	}
}

func energyCharges(prices map[string]float64) map[string]map[string]float64 {
	return map[string]map[string]float64{
		"ALL":          {"ALL": 0},
		FullYearSeason: prices,
		EmptySeason:    {},
	}
}

func weeklyPeriod(p Period, loc *time.Location) TOUPeriod {
	start := p.Start.In(loc)
	end := p.End.In(loc)
	return TOUPeriod{
		FromDayOfWeek: sunday,
		FromHour:      start.Hour(),
		FromMinute:    start.Minute(),
		ToDayOfWeek:   saturday,
		ToHour:        end.Hour(),
		ToMinute:      end.Minute(),
	}
}
