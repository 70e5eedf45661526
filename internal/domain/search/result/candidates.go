package result

// Metadata keys attached to every indexed entry.
const (
	MetaAnswer   = "answer"
	MetaCategory = "category"
	MetaSource   = "source"
)

// Candidates is the raw output of a similarity index query: parallel,
// same-length sequences ordered by ascending distance.
type Candidates struct {
	Documents []string
	Metadatas []map[string]string
	Distances []float64
}

// Len returns the number of complete candidate rows.
// Rows beyond the shortest sequence are not addressable.
func (c Candidates) Len() int {
	return min(len(c.Documents), len(c.Metadatas), len(c.Distances))
}

// Rows returns the longest sequence length, including incomplete rows.
func (c Candidates) Rows() int {
	return max(len(c.Documents), len(c.Metadatas), len(c.Distances))
}
