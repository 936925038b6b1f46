package services

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tree-tracker/models"
	"tree-tracker/utils"
)

// amountRegexp captures the number inside a stored benefit display value,
// e.g. "$3.46" or "264.17 gal".
var amountRegexp = regexp.MustCompile(`-?[\d,]*\.?\d+`)

const topSpeciesLimit = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(entries []*models.TreeEntry) *models.InsightReport {
	report := &models.InsightReport{
		TreesByCondition: make(map[string]int),
		TreesByCity:      make(map[string]int),
	}

	if len(entries) == 0 {
		return report
	}

	report.TotalTrees = len(entries)

	var (
		co2, co2Value, runoff, runoffValue decimal.Decimal
		dbhTotal                           float64
		dbhCount                           int
	)
	species := make(map[string]int)

	for _, e := range entries {
		if e.IsValidated == models.Validated {
			report.ValidatedTrees++
		}
		if e.TreeConditionCategory != "" {
			report.TreesByCondition[e.TreeConditionCategory]++
		}
		if city := models.Deref(e.CityName); city != "" {
			report.TreesByCity[city]++
		}
		if name := e.SpeciesNameCommon; name != "" {
			species[name]++
		}

		if dbh, err := strconv.ParseFloat(strings.TrimSpace(models.Deref(e.DBH)), 64); err == nil && dbh > 0 {
			dbhTotal += dbh
			dbhCount++
			if dbh > report.MaxDBH {
				report.MaxDBH = dbh
				report.LargestTree = e
			}
		}

		if e.CO2Sequestered != nil || e.RunoffAvoided != nil {
			report.TreesWithBenefits++
		}
		co2 = co2.Add(parseAmount(e.CO2Sequestered))
		co2Value = co2Value.Add(parseAmount(e.CO2SequesteredValue))
		runoff = runoff.Add(parseAmount(e.RunoffAvoided))
		runoffValue = runoffValue.Add(parseAmount(e.RunoffAvoidedValue))
	}

	if dbhCount > 0 {
		report.AverageDBH = round2(dbhTotal / float64(dbhCount))
	}
	report.TotalCO2Sequestered = co2.Round(2).InexactFloat64()
	report.TotalCO2Value = co2Value.Round(2).InexactFloat64()
	report.TotalRunoffGallons = runoff.Round(2).InexactFloat64()
	report.TotalRunoffValue = runoffValue.Round(2).InexactFloat64()

	for name, n := range species {
		report.TopSpecies = append(report.TopSpecies, models.SpeciesCount{Name: name, Count: n})
	}
	sort.Slice(report.TopSpecies, func(i, j int) bool {
		a, b := report.TopSpecies[i], report.TopSpecies[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(report.TopSpecies) > topSpeciesLimit {
		report.TopSpecies = report.TopSpecies[:topSpeciesLimit]
	}

	s.logger.Debug("[insights] %d trees, %d with benefits", report.TotalTrees, report.TreesWithBenefits)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  STREET TREE INVENTORY INSIGHTS\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	// Overview
	fmt.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Trees recorded     : %d\n", r.TotalTrees)
	fmt.Fprintf(w, "  Validated          : %d\n", r.ValidatedTrees)
	fmt.Fprintf(w, "  With benefit data  : %d\n", r.TreesWithBenefits)
	fmt.Fprintln(w)

	// Size
	fmt.Fprintf(w, "  Diameter at Breast Height (in)\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AverageDBH > 0 {
		fmt.Fprintf(w, "  Average : %.2f\n", r.AverageDBH)
		fmt.Fprintf(w, "  Largest : %.2f", r.MaxDBH)
		if r.LargestTree != nil {
			fmt.Fprintf(w, " (%s)", truncate(r.LargestTree.SpeciesNameCommon, 30))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "  No DBH data available\n")
	}
	fmt.Fprintln(w)

	// Benefits
	fmt.Fprintf(w, "  Annual Benefits\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  CO2 sequestered : %.2f lbs ($%.2f)\n", r.TotalCO2Sequestered, r.TotalCO2Value)
	fmt.Fprintf(w, "  Runoff avoided  : %.2f gal ($%.2f)\n", r.TotalRunoffGallons, r.TotalRunoffValue)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Top %d Species\n", topSpeciesLimit)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopSpecies) == 0 {
		fmt.Fprintf(w, "  No species recorded\n")
	} else {
		for i, sc := range r.TopSpecies {
			fmt.Fprintf(w, "  %d. %-40s %d\n", i+1, truncate(sc.Name, 38), sc.Count)
		}
	}
	fmt.Fprintln(w)

	printCounts(w, "Trees by Condition", r.TreesByCondition, thin)
	printCounts(w, "Trees by City", r.TreesByCity, thin)

	fmt.Fprintf(w, "%s\n\n", sep)
}

func printCounts(w io.Writer, title string, counts map[string]int, thin string) {
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(counts) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}

	type keyCount struct {
		key   string
		count int
	}
	var rows []keyCount
	for k, n := range counts {
		rows = append(rows, keyCount{k, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, kc := range rows {
		bar := strings.Repeat("█", kc.count)
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
	fmt.Fprintln(w)
}

// parseAmount extracts the number from a stored display value. Missing
// or unparseable values count as zero.
func parseAmount(display *string) decimal.Decimal {
	if display == nil {
		return decimal.Zero
	}
	match := amountRegexp.FindString(*display)
	if match == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
