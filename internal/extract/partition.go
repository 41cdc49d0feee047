package extract

import "github.com/toladipo/docbrief/internal/form"

// Batch is one model request's worth of fields.
type Batch struct {
	Fields []form.FlatField
	Tokens int // estimated prompt cost of the fields alone
}

// EstimateTokens is the chars/4 heuristic. It overshoots on prose and
// undershoots on dense tables, which is fine: the limiter clamps per-request
// anyway and the estimate only has to be stable.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return len(s)/4 + 1
}

// Partition packs fields into batches in template order: a batch closes when
// the next field would push it past maxFields or maxTokens. A single field
// whose prompt alone exceeds maxTokens still gets its own batch; truncation
// is the prompt builder's job. Every field lands in exactly one batch.
func Partition(fields []form.FlatField, maxFields, maxTokens int) []Batch {
	if maxFields <= 0 {
		maxFields = 4
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}

	var batches []Batch
	var cur Batch
	for _, f := range fields {
		cost := EstimateTokens(f.Name + f.Prompt)
		if len(cur.Fields) > 0 &&
			(len(cur.Fields)+1 > maxFields || cur.Tokens+cost > maxTokens) {
			batches = append(batches, cur)
			cur = Batch{}
		}
		cur.Fields = append(cur.Fields, f)
		cur.Tokens += cost
	}
	if len(cur.Fields) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
