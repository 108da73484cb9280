package memory

import (
	"fmt"
	"strings"
)

// plantInfo is one entry of the fixed reference corpus.
type plantInfo struct {
	Name           string
	WaterFrequency string
	Sunlight       string
	Soil           string
	Tips           string
}

// knowledgeCorpus is the pre-seeded plant-care reference set. Read-only
// after seeding; queried by any user.
var knowledgeCorpus = []plantInfo{
	{
		Name:           "Tomato",
		WaterFrequency: "Every 2-3 days",
		Sunlight:       "6-8 hours daily",
		Soil:           "Well-draining, pH 6.0-6.8",
		Tips:           "Support with stakes, prune suckers regularly",
	},
	{
		Name:           "Basil",
		WaterFrequency: "Daily in hot weather",
		Sunlight:       "6 hours daily",
		Soil:           "Rich, moist, well-draining",
		Tips:           "Pinch flowers to encourage leaf growth",
	},
	{
		Name:           "Rose",
		WaterFrequency: "2-3 times per week",
		Sunlight:       "6+ hours daily",
		Soil:           "Loamy, pH 6.0-7.0",
		Tips:           "Deadhead spent blooms, fertilize monthly",
	},
	{
		Name:           "Cactus",
		WaterFrequency: "Every 2-3 weeks",
		Sunlight:       "Bright indirect light",
		Soil:           "Sandy, well-draining cactus mix",
		Tips:           "Avoid overwatering, ensure drainage holes",
	},
	{
		Name:           "Orchid",
		WaterFrequency: "Once a week",
		Sunlight:       "Bright indirect light",
		Soil:           "Bark-based orchid mix",
		Tips:           "Mist leaves, avoid water on flowers",
	},
}

// plantKeywords drives the MentionedPlants scan over a user's long-term
// text. A lightweight approximation, not authoritative extraction.
var plantKeywords = []string{"tomato", "basil", "rose", "cactus", "orchid", "mint", "lettuce"}

// document renders the corpus entry as one indexable text unit.
func (p plantInfo) document() string {
	return fmt.Sprintf("%s: Water %s, Sunlight: %s, Soil: %s, Tips: %s",
		p.Name, p.WaterFrequency, p.Sunlight, p.Soil, p.Tips)
}

// id is stable per plant so re-seeding stays idempotent.
func (p plantInfo) id() string {
	return "plant_" + strings.ToLower(p.Name)
}
