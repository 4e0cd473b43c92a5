package models

// Category is the fixed listing taxonomy.
type Category string

const (
	CategoryResearch     Category = "research"
	CategoryCoding       Category = "coding"
	CategoryData         Category = "data"
	CategoryWriting      Category = "writing"
	CategoryAutomation   Category = "automation"
	CategoryProductivity Category = "productivity"
	CategorySecurity     Category = "security"
	CategoryOther        Category = "other"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryResearch,
	CategoryCoding,
	CategoryData,
	CategoryWriting,
	CategoryAutomation,
	CategoryProductivity,
	CategorySecurity,
	CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Platforms lists the agent platforms a skill may declare support for.
var Platforms = []string{"claude", "openai", "gemini", "langchain", "crewai", "universal"}

// Source identifies how a skill entered the registry.
type Source string

const (
	SourceWeb         Source = "web"
	SourceAPI         Source = "api"
	SourceAgent       Source = "agent"
	SourceAutoIndexer Source = "auto-indexer"
)

// TrustLevel classifies a listing's provenance, independent of review score.
type TrustLevel string

const (
	TrustUnverified TrustLevel = "unverified"
	TrustTrusted    TrustLevel = "trusted"
	TrustVerified   TrustLevel = "verified"
)
