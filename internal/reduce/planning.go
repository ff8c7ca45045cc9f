package reduce

// Link planning constants for the field site. The oblique factor maps
// vertical-incidence foF2 to the maximum usable frequency of the 2100 km
// one-hop path; the working factor derates MUF to the optimum working
// frequency per ITU practice.
const (
	MUFFactor = 3.0
	OWFFactor = 0.85

	NightBandLowMHz  = 2.0
	NightBandHighMHz = 8.0
	DayBandLowMHz    = 8.0
	DayBandHighMHz   = 15.0

	PrimaryFreqMHz   = 7.078
	PrimaryPowerW    = 5.0
	SecondaryFreqMHz = 10.130
)

// UsableFoF2Threshold is the minimum foF2 at which the primary channel
// stays below the optimum working frequency.
const UsableFoF2Threshold = PrimaryFreqMHz / (MUFFactor * OWFFactor)

// PlanningValues are the derived link frequencies for one reduction.
type PlanningValues struct {
	MUF float64
	OWF float64
	// PrimaryUsable and SecondaryUsable report whether each channel sits
	// at or below the optimum working frequency.
	PrimaryUsable   bool
	SecondaryUsable bool
}

// Plan derives the link planning values from an foF2 reduction.
func Plan(res *Result) PlanningValues {
	muf := res.Mean * MUFFactor
	owf := muf * OWFFactor
	return PlanningValues{
		MUF:             muf,
		OWF:             owf,
		PrimaryUsable:   PrimaryFreqMHz <= owf,
		SecondaryUsable: SecondaryFreqMHz <= owf,
	}
}
