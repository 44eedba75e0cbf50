package dataset

import (
	"fmt"

	"github.com/lexgraph/chainbench/internal/cite"
	"github.com/lexgraph/chainbench/internal/model"
)

// Builder indexes the raw tables and joins them into evaluation instances.
// Indexes are built once at construction; the builder is read-only
// afterwards.
type Builder struct {
	bundle *Bundle

	caseByCite     map[string]*model.CourtCase
	overruleByCite map[string]*model.OverruleRecord
	fakeCites      []string
	fakeNames      []string
}

// NewBuilder indexes the bundle.
func NewBuilder(bundle *Bundle) *Builder {
	b := &Builder{
		bundle:         bundle,
		caseByCite:     make(map[string]*model.CourtCase),
		overruleByCite: make(map[string]*model.OverruleRecord),
	}
	b.indexCases()
	b.indexOverrules()
	b.indexFakes()
	return b
}

func (b *Builder) indexCases() {
	for i := 0; i < b.bundle.Cases.Len(); i++ {
		row := b.bundle.Cases.Row(i)
		usCite := row.Str("usCite")
		if usCite == "" {
			continue
		}
		term, _ := row.Int("term")
		b.caseByCite[usCite] = &model.CourtCase{
			USCite:          usCite,
			CaseName:        row.Str("caseName"),
			Term:            term,
			MajOpinWriter:   row.IntPtr("majOpinWriter"),
			CaseDisposition: row.IntPtr("caseDisposition"),
			PartyWinning:    row.IntPtr("partyWinning"),
			IssueArea:       row.IntPtr("issueArea"),
			MajorityOpinion: row.Str("majority_opinion"),
			LexisCite:       row.Str("lexisCite"),
			SctCite:         row.Str("sctCite"),
			Importance:      row.FloatPtr("pauth_score"),
		}
	}
}

func (b *Builder) indexOverrules() {
	for i := 0; i < b.bundle.Overruled.Len(); i++ {
		row := b.bundle.Overruled.Row(i)
		usCite := row.Str("overruled_case_us_id")
		if usCite == "" {
			continue
		}
		year, _ := row.Int("year_overruled")
		b.overruleByCite[usCite] = &model.OverruleRecord{
			OverruledUSCite:    usCite,
			OverruledCaseName:  row.Str("overruled_case_name"),
			OverrulingCaseName: row.Str("overruling_case_name"),
			YearOverruled:      year,
			OverruledInFull:    row.Bool("overruled_in_full"),
		}
	}
}

func (b *Builder) indexFakes() {
	for i := 0; i < b.bundle.FakeCases.Len(); i++ {
		row := b.bundle.FakeCases.Row(i)
		if c := row.Str("us_citation"); c != "" {
			b.fakeCites = append(b.fakeCites, c)
		}
		if n := row.Str("case_name"); n != "" {
			b.fakeNames = append(b.fakeNames, n)
		}
	}
}

// Case returns the indexed case for a citation, nil when unknown.
func (b *Builder) Case(usCite string) *model.CourtCase {
	return b.caseByCite[usCite]
}

// KnownCites returns every citation in the case index. Feeds the citation
// verifier's known-real set.
func (b *Builder) KnownCites() []string {
	out := make([]string, 0, len(b.caseByCite))
	for usCite := range b.caseByCite {
		out = append(out, usCite)
	}
	return out
}

// FakeCites returns the fabricated citations. Feeds the verifier's
// fabricated set.
func (b *Builder) FakeCites() []string { return b.fakeCites }

// FakeNames returns the fabricated case names.
func (b *Builder) FakeNames() []string { return b.fakeNames }

// Instances joins every resolvable citation edge into an instance. Edges
// whose cited case is absent from the case index are dropped; an absent
// citing case only narrows coverage.
func (b *Builder) Instances() []*model.Instance {
	var out []*model.Instance
	for i := 0; i < b.bundle.Shepards.Len(); i++ {
		if inst := b.instanceFromRow(b.bundle.Shepards.Row(i)); inst != nil {
			out = append(out, inst)
		}
	}
	return out
}

func (b *Builder) instanceFromRow(row Row) *model.Instance {
	citedCite := row.Str("cited_case_us_cite")
	if citedCite == "" {
		return nil
	}
	cited := b.caseByCite[citedCite]
	if cited == nil {
		return nil
	}

	citingCite := row.Str("citing_case_us_cite")
	return &model.Instance{
		ID:     cite.PairID(citedCite, citingCite),
		Cited:  *cited,
		Citing: b.caseByCite[citingCite],
		Edge: model.ShepardsEdge{
			CitedUSCite:    citedCite,
			CitingUSCite:   citingCite,
			CitedCaseName:  row.Str("cited_case_name"),
			CitingCaseName: row.Str("citing_case_name"),
			Shepards:       row.Str("shepards"),
			Agree:          row.Bool("agree"),
			CitedYear:      row.IntPtr("cited_case_year"),
			CitingYear:     row.IntPtr("citing_case_year"),
		},
		Overrule: b.overruleByCite[citedCite],
	}
}

// CoverageReport summarizes how many edges resolve and which coverage tiers
// they reach.
type CoverageReport struct {
	TotalEdges     int `json:"total_edges"`
	CitedResolved  int `json:"cited_resolved"`
	CitingResolved int `json:"citing_resolved"`
	ChainCore      int `json:"chain_core"`
	RAGSubset      int `json:"rag_subset"`
}

// CitedPercent is the share of edges whose cited case resolves.
func (c CoverageReport) CitedPercent() float64 {
	if c.TotalEdges == 0 {
		return 0
	}
	return 100 * float64(c.CitedResolved) / float64(c.TotalEdges)
}

// CitingPercent is the share of edges whose citing case resolves.
func (c CoverageReport) CitingPercent() float64 {
	if c.TotalEdges == 0 {
		return 0
	}
	return 100 * float64(c.CitingResolved) / float64(c.TotalEdges)
}

func (c CoverageReport) String() string {
	return fmt.Sprintf(
		"total edges:      %d\n"+
			"cited resolved:   %d (%.1f%%)\n"+
			"citing resolved:  %d (%.1f%%)\n"+
			"chain core:       %d\n"+
			"rag subset:       %d",
		c.TotalEdges,
		c.CitedResolved, c.CitedPercent(),
		c.CitingResolved, c.CitingPercent(),
		c.ChainCore, c.RAGSubset)
}

// Coverage computes the coverage report over all edges.
func (b *Builder) Coverage() CoverageReport {
	report := CoverageReport{TotalEdges: b.bundle.Shepards.Len()}
	for i := 0; i < b.bundle.Shepards.Len(); i++ {
		row := b.bundle.Shepards.Row(i)
		cited := b.caseByCite[row.Str("cited_case_us_cite")]
		citing := b.caseByCite[row.Str("citing_case_us_cite")]

		if cited == nil {
			continue
		}
		report.CitedResolved++
		if citing != nil {
			report.CitingResolved++
		}
		if !cited.HasOpinion() {
			continue
		}
		report.ChainCore++
		if citing != nil && citing.HasOpinion() {
			report.RAGSubset++
		}
	}
	return report
}
