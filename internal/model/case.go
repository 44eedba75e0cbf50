// Package model holds the entity types for chain evaluation: cases, citation
// edges, instances, per-step results and the per-run context.
package model

// CourtCase is one SCOTUS case with metadata and optional opinion text.
// Constructed once during data preparation and read-only afterwards.
type CourtCase struct {
	USCite          string   `json:"us_cite"`
	CaseName        string   `json:"case_name"`
	Term            int      `json:"term"`
	MajOpinWriter   *int     `json:"maj_opin_writer,omitempty"`
	CaseDisposition *int     `json:"case_disposition,omitempty"`
	PartyWinning    *int     `json:"party_winning,omitempty"`
	IssueArea       *int     `json:"issue_area,omitempty"`
	MajorityOpinion string   `json:"majority_opinion,omitempty"`
	LexisCite       string   `json:"lexis_cite,omitempty"`
	SctCite         string   `json:"sct_cite,omitempty"`
	Importance      *float64 `json:"importance,omitempty"`
}

// HasOpinion reports whether the majority opinion text is available.
func (c *CourtCase) HasOpinion() bool {
	return c != nil && c.MajorityOpinion != ""
}

// ShepardsEdge is one citation relationship between two cases: the earlier
// cited case and the later citing case, with the Shepard's treatment signal
// and the derived agreement flag.
type ShepardsEdge struct {
	CitedUSCite    string `json:"cited_case_us_cite"`
	CitingUSCite   string `json:"citing_case_us_cite"`
	CitedCaseName  string `json:"cited_case_name,omitempty"`
	CitingCaseName string `json:"citing_case_name,omitempty"`
	Shepards       string `json:"shepards,omitempty"`
	Agree          bool   `json:"agree"`
	CitedYear      *int   `json:"cited_case_year,omitempty"`
	CitingYear     *int   `json:"citing_case_year,omitempty"`
}

// OverruleRecord records that a case was overruled. Its absence on an
// instance means the cited case was never overruled.
type OverruleRecord struct {
	OverruledUSCite    string `json:"overruled_case_us_cite"`
	OverruledCaseName  string `json:"overruled_case_name"`
	OverrulingCaseName string `json:"overruling_case_name"`
	YearOverruled      int    `json:"year_overruled"`
	OverruledInFull    bool   `json:"overruled_in_full"`
}
