package models

// InsightReport holds the computed analytics over the stored inventory.
type InsightReport struct {
	TotalTrees          int
	ValidatedTrees      int
	TreesWithBenefits   int
	AverageDBH          float64
	MaxDBH              float64
	LargestTree         *TreeEntry
	TotalCO2Sequestered float64
	TotalCO2Value       float64
	TotalRunoffGallons  float64
	TotalRunoffValue    float64
	TopSpecies          []SpeciesCount
	TreesByCondition    map[string]int
	TreesByCity         map[string]int
}

// SpeciesCount is the number of stored trees of one species.
type SpeciesCount struct {
	Name  string
	Count int
}
