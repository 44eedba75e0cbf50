package model

// SCDB closed enumerations. Initialized once at startup and treated as
// immutable lookup tables.

// DispositionCodes maps the SCDB caseDisposition code to its text label.
var DispositionCodes = map[int]string{
	1:  "stay granted",
	2:  "affirmed",
	3:  "reversed",
	4:  "reversed and remanded",
	5:  "vacated and remanded",
	6:  "affirmed and reversed in part",
	7:  "affirmed and vacated in part",
	8:  "affirmed and reversed in part and remanded",
	9:  "vacated",
	10: "petition denied",
	11: "certification",
}

// PartyWinningCodes maps the SCDB partyWinning code to its text label.
var PartyWinningCodes = map[int]string{
	0: "respondent",
	1: "petitioner",
	2: "unclear",
}

// DispositionText converts an optional SCDB disposition code to its label.
// Returns "" for nil or unknown codes.
func DispositionText(code *int) string {
	if code == nil {
		return ""
	}
	return DispositionCodes[*code]
}

// PartyWinningText converts an optional SCDB partyWinning code to its label.
// Returns "" for nil or unknown codes.
func PartyWinningText(code *int) string {
	if code == nil {
		return ""
	}
	return PartyWinningCodes[*code]
}
