package domain

import "strings"

// Tier is a named monthly generation quota.
type Tier struct {
	Name  string `json:"tier"`
	Label string `json:"label"`
	Limit int    `json:"limit"`
}

// Built-in pricing tiers. Stored assignments reference these by name;
// unassigned licenses fall back to Trial.
var (
	TierTrial   = Tier{Name: "trial", Label: "Trial", Limit: 25}
	TierStarter = Tier{Name: "starter", Label: "Starter", Limit: 100}
	TierPro     = Tier{Name: "pro", Label: "Pro", Limit: 500}
	TierAgency  = Tier{Name: "agency", Label: "Agency", Limit: 2000}
)

var tiersByName = map[string]Tier{
	TierTrial.Name:   TierTrial,
	TierStarter.Name: TierStarter,
	TierPro.Name:     TierPro,
	TierAgency.Name:  TierAgency,
}

// TierByName resolves a built-in tier by its lowercase name.
func TierByName(name string) (Tier, bool) {
	t, ok := tiersByName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// MinLicenseKeyLength is the shortest license key accepted as well-formed.
const MinLicenseKeyLength = 4

// LicenseKeyWellFormed reports whether a caller-supplied key passes the
// syntactic gate. Anything shorter is rejected before any lookup.
func LicenseKeyWellFormed(key string) bool {
	return len(key) >= MinLicenseKeyLength
}
