package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown returns a summary of the report: a header block and one table row per step.
func (r *Report) Markdown() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Build %s\n\n", r.Root.Name)
	fmt.Fprintf(&b, "- Outcome: **%s** (return code %d)\n", r.Outcome, r.ReturnCode)
	fmt.Fprintf(&b, "- Build type: `%s`", r.BuildType)
	if r.Description != "" {
		fmt.Fprintf(&b, " %s", r.Description)
	}
	b.WriteString("\n")
	if r.BuildID != "" {
		fmt.Fprintf(&b, "- Build ID: `%s`\n", r.BuildID)
	}
	if r.Host != "" {
		fmt.Fprintf(&b, "- Host: `%s`\n", r.Host)
	}
	fmt.Fprintf(&b, "- Duration: %s\n\n", r.Root.Duration)

	b.WriteString("| Node | Step | Result | Duration | Actions |\n")
	b.WriteString("|---|---|---|---|---|\n")
	rows := 0
	var walk func(n NodeReport)
	walk = func(n NodeReport) {
		for _, s := range n.Steps {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
				escapeCell(n.Path), escapeCell(s.Name), s.Result, s.Duration, len(s.Actions))
			rows++
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(r.Root)
	if rows == 0 {
		b.WriteString("| - | - | - | - | 0 |\n")
	}

	if failed := r.FailedSteps(); len(failed) > 0 {
		b.WriteString("\n## Failed steps\n\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}
	return []byte(b.String())
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders the Markdown summary as a standalone HTML page.
func (r *Report) HTML() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(r.Markdown(), &body); err != nil {
		return nil, err
	}
	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Build %s</title>\n</head>\n<body>\n",
		htmlEscaper.Replace(r.Root.Name))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
