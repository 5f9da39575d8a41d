package models

// Stage names the check that flagged a candidate.
type Stage string

const (
	StageAnchorText   Stage = "anchor_text"
	StageURL          Stage = "url"
	StageDocumentText Stage = "document_text"
)

// Candidate is a document link discovered on the watched page.
type Candidate struct {
	URL           string `json:"url"`
	AnchorText    string `json:"anchor_text"`
	ExtractedText string `json:"extracted_text,omitempty"`
}

// MatchResult is the outcome of evaluating one candidate.
type MatchResult struct {
	Candidate Candidate `json:"candidate"`
	Matched   bool      `json:"matched"`
	Stages    []Stage   `json:"matched_stages,omitempty"`
}

// StageNames returns the matched stages as plain strings.
func (r MatchResult) StageNames() []string {
	names := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		names[i] = string(s)
	}
	return names
}
