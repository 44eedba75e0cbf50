package model

// Instance is one unit of evaluation: a cited-case/citing-case pair joined to
// its Shepard's edge and, when the cited case was overruled, the overrule
// record. The citing case may be absent because the two source samples are
// drawn independently. Instances are constructed once and never mutated.
type Instance struct {
	ID       string          `json:"id"`
	Cited    CourtCase       `json:"cited_case"`
	Citing   *CourtCase      `json:"citing_case,omitempty"`
	Edge     ShepardsEdge    `json:"edge"`
	Overrule *OverruleRecord `json:"overrule,omitempty"`
}

// HasCitedText reports whether the cited case carries opinion text (the
// anchor-text coverage tier).
func (in *Instance) HasCitedText() bool {
	return in.Cited.HasOpinion()
}

// HasCitingText reports whether the citing case exists and carries opinion
// text (the counterpart-text coverage tier).
func (in *Instance) HasCitingText() bool {
	return in.Citing.HasOpinion()
}
