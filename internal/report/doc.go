// Package report turns a finished instruction tree into a build report.
//
// The report is a plain data model of nodes, steps and actions. It can be encoded
// as JSON, summarized as Markdown, and rendered to HTML with goldmark. The Plugin
// writes all three at the Report phase.
package report
