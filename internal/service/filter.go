package service

import (
	"rpgpt/internal/models"
)

// FilterEngine selects the rows of a dataset that pass a FilterSettings.
// It holds only read-only tables and is safe for concurrent use.
type FilterEngine struct {
	dataset  *Dataset
	sectors  *SectorTable
	aliases  *AliasTable
	resolver *Resolver
	matcher  *RowMatcher
}

// NewFilterEngine creates an engine over a dataset, sector table and
// alias table.
func NewFilterEngine(dataset *Dataset, sectors *SectorTable, aliases *AliasTable) *FilterEngine {
	return &FilterEngine{
		dataset:  dataset,
		sectors:  sectors,
		aliases:  aliases,
		resolver: NewResolver(sectors, aliases),
		matcher:  NewRowMatcher(aliases),
	}
}

// Dataset returns the table the engine filters.
func (e *FilterEngine) Dataset() *Dataset {
	return e.dataset
}

// Sectors returns the sector table.
func (e *FilterEngine) Sectors() *SectorTable {
	return e.sectors
}

// Aliases returns the alias table.
func (e *FilterEngine) Aliases() *AliasTable {
	return e.aliases
}

// Resolver returns the sector resolver the engine uses.
func (e *FilterEngine) Resolver() *Resolver {
	return e.resolver
}

// FilterResult is the outcome of one filter pass.
type FilterResult struct {
	Rows []models.QuestionRow
	// Codes is the resolved selection; nil when sector filtering was skipped.
	Codes CodeSet
	// Unresolved lists selected sector names missing from the sector table.
	Unresolved []string
}

// Apply returns the rows passing settings in dataset order.
func (e *FilterEngine) Apply(settings models.FilterSettings) []models.QuestionRow {
	return e.ApplyDetailed(settings).Rows
}

// ApplyDetailed is Apply that also reports how the sector selection was
// resolved. An empty sector list skips sector filtering entirely.
func (e *FilterEngine) ApplyDetailed(settings models.FilterSettings) FilterResult {
	var res FilterResult
	sectorFiltered := len(settings.Sectors) > 0
	if sectorFiltered {
		res.Codes, res.Unresolved = e.resolver.ResolveDetailed(settings.Sectors)
	}

	supplyChain := e.allowed(ColSupplyChainOnly, settings.SupplyChain)
	ifrs := e.allowed(ColIFRSS2, settings.IFRSS2)
	afi := e.allowed(ColAFI, settings.AFI)
	modules := e.allowed(ColModuleName, settings.ModuleName)

	res.Rows = []models.QuestionRow{}
	for _, row := range e.dataset.Rows() {
		if sectorFiltered && !e.matcher.Matches(row.SectorExpr, res.Codes) {
			continue
		}
		if !supplyChain[row.SupplyChainOnly] || !ifrs[row.IFRSS2] || !afi[row.AFI] || !modules[row.ModuleName] {
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// allowed turns a settings list into a value set. An unset (nil) list
// allows every value present in the column.
func (e *FilterEngine) allowed(column string, selected []string) map[models.Value]bool {
	set := make(map[models.Value]bool)
	if selected == nil {
		for _, v := range e.dataset.Distinct(column) {
			set[v] = true
		}
		return set
	}
	for _, s := range selected {
		set[models.ParseValue(s)] = true
	}
	return set
}

// Effective returns settings with every unset categorical list replaced by
// the column's distinct values, so the result survives a save/load cycle
// unchanged in meaning.
func (e *FilterEngine) Effective(settings models.FilterSettings) models.FilterSettings {
	out := settings.Clone()
	if out.Sectors == nil {
		out.Sectors = []string{}
	}
	if out.SupplyChain == nil {
		out.SupplyChain = e.dataset.DistinctTokens(ColSupplyChainOnly)
	}
	if out.IFRSS2 == nil {
		out.IFRSS2 = e.dataset.DistinctTokens(ColIFRSS2)
	}
	if out.AFI == nil {
		out.AFI = e.dataset.DistinctTokens(ColAFI)
	}
	if out.ModuleName == nil {
		out.ModuleName = e.dataset.DistinctTokens(ColModuleName)
	}
	return out
}

// Defaults returns the reset settings: no sector restriction and every
// categorical value selected.
func (e *FilterEngine) Defaults() models.FilterSettings {
	return e.Effective(models.FilterSettings{})
}
