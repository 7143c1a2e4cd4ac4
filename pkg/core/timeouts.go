package core

import "time"

// Default timeouts (in milliseconds), taken from the waits the notes UI needs.
const (
	DefaultLocateTimeout       = 5000
	DefaultAppearTimeout       = 10000
	DefaultAffordanceTimeout   = 5000
	DefaultNavigationTimeout   = 10000
	DefaultAbsenceTimeout      = 2000
	DefaultArchiveCheckTimeout = 5000
	DefaultPinCheckTimeout     = 3000
	DefaultPageLoadTimeout     = 20000
	DefaultPollInterval        = 200
)

// Timeouts bounds every wait the engine performs.
type Timeouts struct {
	Locate       time.Duration // resolve an entity by query
	Appear       time.Duration // a created or restored entity becomes visible
	Affordance   time.Duration // a child affordance or popup item renders
	Navigation   time.Duration // a view's arrival signal appears
	Absence      time.Duration // bounded absence proof
	ArchiveCheck time.Duration // entity presence in the archive view
	PinCheck     time.Duration // entity presence before reading pin state
	PageLoad     time.Duration // document.readyState becomes "complete"
	PollInterval time.Duration
}

// DefaultTimeouts returns the default wait bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Locate:       DefaultLocateTimeout * time.Millisecond,
		Appear:       DefaultAppearTimeout * time.Millisecond,
		Affordance:   DefaultAffordanceTimeout * time.Millisecond,
		Navigation:   DefaultNavigationTimeout * time.Millisecond,
		Absence:      DefaultAbsenceTimeout * time.Millisecond,
		ArchiveCheck: DefaultArchiveCheckTimeout * time.Millisecond,
		PinCheck:     DefaultPinCheckTimeout * time.Millisecond,
		PageLoad:     DefaultPageLoadTimeout * time.Millisecond,
		PollInterval: DefaultPollInterval * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultTimeouts.
func (t Timeouts) WithDefaults() Timeouts {
	d := DefaultTimeouts()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.Locate, d.Locate)
	fill(&t.Appear, d.Appear)
	fill(&t.Affordance, d.Affordance)
	fill(&t.Navigation, d.Navigation)
	fill(&t.Absence, d.Absence)
	fill(&t.ArchiveCheck, d.ArchiveCheck)
	fill(&t.PinCheck, d.PinCheck)
	fill(&t.PageLoad, d.PageLoad)
	fill(&t.PollInterval, d.PollInterval)
	return t
}
