package entity

// Team receives enriched articles and owns sources.
type Team struct {
	Code      string
	Name      string
	Active    bool
	SortOrder int
}

// Default team codes seeded by migrations.
const (
	TeamDev    = "dev"
	TeamBA     = "ba"
	TeamSystem = "system"
)
