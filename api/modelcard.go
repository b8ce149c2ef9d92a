package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// handleIndex serves a rendered model card: what the service is, which
// artifact version is loaded, and how to call it.
func (s *Server) handleIndex(c *gin.Context) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Customer Churn Prediction API\n\n")
	fmt.Fprintf(&b, "Artifact bundle `%s`, loaded %s.\n\n", s.bundle.Version, s.bundle.LoadedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Model contract: %d features (%d continuous, scaled).\n\n",
		s.bundle.Contract.Len(), len(s.bundle.Contract.ContinuousFeatures()))

	if len(s.bundle.Metrics) > 0 {
		b.WriteString("## Offline evaluation\n\n")
		names := make([]string, 0, len(s.bundle.Metrics))
		for name := range s.bundle.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- **%s**: %.3f\n", name, s.bundle.Metrics[name])
		}
		b.WriteString("\n")
	}

	b.WriteString(`## Endpoints

- ` + "`POST /predict`" + ` — churn probability and decision for one customer
- ` + "`POST /explain`" + ` — per-feature attribution of one prediction
- ` + "`POST /counterfactual`" + ` — minimal actionable changes that flip the decision
- ` + "`POST /bulk-predict`" + ` — score an uploaded CSV or Excel table
- ` + "`GET /model-performance`" + ` — offline evaluation metrics
- ` + "`GET /feature-importance`" + ` — global driver view
`)

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	html := markdown.ToHTML([]byte(b.String()), p, renderer)

	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
