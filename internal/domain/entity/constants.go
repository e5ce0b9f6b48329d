package entity

// Request priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Maintenance categories assigned by the AI classifier.
const (
	CategoryElectrical = "Electrical"
	CategoryPlumbing   = "Plumbing"
	CategoryHVAC       = "HVAC"
	CategoryCarpentry  = "Carpentry"
	CategoryMasonry    = "Masonry"
	CategoryOther      = "Other"
)

// AIAnalysis is the structured classification hint produced for a new
// request description. Best effort; the fallback values are substituted
// when the advisory service fails.
type AIAnalysis struct {
	Category             string   `json:"category"`
	Priority             string   `json:"priority"`
	PotentialCause       string   `json:"potentialCause"`
	RequiredTools        []string `json:"requiredTools"`
	TroubleshootingSteps []string `json:"troubleshootingSteps"`
}
