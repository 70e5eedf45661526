package answer

import (
	"fmt"
	"strings"

	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
)

var contentEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Assemble renders results into a tagged context block and the matching citations.
//
// Each result becomes one <faq> element carrying its 1-based rank and similarity.
// Elements are separated by a blank line in result order.
func Assemble(results []result.Result) (string, []domanswer.Citation) {
	citations := make([]domanswer.Citation, 0, len(results))
	blocks := make([]string, 0, len(results))

	for i, r := range results {
		c := domanswer.NewCitation(r.Question(), r.Distance())
		citations = append(citations, c)
		blocks = append(blocks, fmt.Sprintf(
			"<faq index=\"%d\" similarity=\"%d\">\n<question>%s</question>\n<answer>%s</answer>\n</faq>",
			i+1, c.SimilarityPercent(),
			contentEscaper.Replace(r.Question()),
			contentEscaper.Replace(r.Answer()),
		))
	}

	return strings.Join(blocks, "\n\n"), citations
}
