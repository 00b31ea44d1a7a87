package rules

import (
	"sort"
	"strings"

	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/util"
)

var UnknownRulesError = util.NewError("unknown rules")

var registry = map[string]func() *count.Profile{
	"Federal":                 Federal,
	"AEC2013":                 AEC2013,
	"AEC2016":                 AEC2016,
	"AEC2019":                 AEC2019,
	"FederalPost2021":         FederalPost2021,
	"FederalPost2021Manual":   FederalPost2021Manual,
	"ACTPre2020":              ACTPre2020,
	"ACT2020":                 ACT2020,
	"ACT2021":                 ACT2021,
	"ACTCasualVacancy2021":    ACTCasualVacancy2021,
	"NSWLocalGov2021":         NSWLocalGov2021,
	"NSWECLocalGov2021":       NSWECLocalGov2021,
	"NSWECLocalGov2021Literal": NSWECLocalGov2021Literal,
	"Vic2018":                 Vic2018,
	"WA2008":                  WA2008,
	"IRV":                     SimpleIRV,
}

// Names lists the supported rule names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromString resolves a rule name to a fresh profile.
func FromString(name string) (*count.Profile, error) {
	f, ok := registry[name]
	if !ok {
		return nil, UnknownRulesError.Errorf("%q; supported: %s", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}
