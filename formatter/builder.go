package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/guard/internal/lints"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

const tabWidth = 8

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	infoStyle       = color.New(color.FgHiCyan, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
)

// issueFormatter supplies the template an issue is rendered with.
type issueFormatter interface {
	IssueTemplate() string
}

func getIssueFormatter(rule string) issueFormatter {
	switch rule {
	case lints.RuleMissingCatch, lints.RuleCatchTarget:
		return &CatchIssueFormatter{}
	default:
		return &GeneralIssueFormatter{}
	}
}

// GenerateFormattedIssue renders issues of one file, each followed by a
// blank line.
func GenerateFormattedIssue(issues []tt.Issue, snippet *SourceCode) string {
	var builder strings.Builder
	for _, issue := range issues {
		builder.WriteString(buildIssue(issue, snippet, getIssueFormatter(issue.Rule)))
	}
	return builder.String()
}

type IssueData struct {
	Category        string
	Severity        tt.Severity
	Rule            string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	Suggestion      string
	Note            string
	SnippetLines    []string
	CommonIndent    string
}

var funcMap = template.FuncMap{
	"header":     header,
	"snippet":    codeSnippet,
	"underline":  underlineAndMessage,
	"suggestion": suggestion,
	"note":       note,
}

func buildIssue(issue tt.Issue, snippet *SourceCode, formatter issueFormatter) string {
	maxLineNumWidth := len(fmt.Sprint(issue.End.Line))

	data := IssueData{
		Category:        issue.Category,
		Severity:        issue.Severity,
		Rule:            issue.Rule,
		Filename:        issue.Filename,
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
		StartLine:       issue.Start.Line,
		StartColumn:     issue.Start.Column,
		EndLine:         issue.End.Line,
		EndColumn:       issue.End.Column,
		MaxLineNumWidth: maxLineNumWidth,
		Message:         issue.Message,
		Suggestion:      issue.Suggestion,
		Note:            issue.Note,
		SnippetLines:    snippet.Lines,
	}
	if isValidLineRange(data.StartLine, data.EndLine, data.SnippetLines) {
		data.CommonIndent = findCommonIndent(data.SnippetLines[data.StartLine-1 : data.EndLine])
	}

	tmpl := template.Must(template.New("issue").Funcs(funcMap).Parse(formatter.IssueTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v\n", err)
	}
	return buf.String()
}

func header(d IssueData) string {
	var label string
	switch d.Severity {
	case tt.SeverityError:
		label = errorStyle.Sprint("error: ")
	case tt.SeverityWarning:
		label = warningStyle.Sprint("warning: ")
	default:
		label = infoStyle.Sprint("info: ")
	}

	return label + ruleStyle.Sprint(d.Rule) + "\n" +
		lineStyle.Sprintf("%s--> ", strings.Repeat(" ", d.MaxLineNumWidth)) +
		fileStyle.Sprintf("%s:%d:%d", d.Filename, d.StartLine, d.StartColumn) + "\n"
}

func codeSnippet(d IssueData) string {
	if !isValidLineRange(d.StartLine, d.EndLine, d.SnippetLines) {
		return ""
	}

	var b strings.Builder
	b.WriteString(lineStyle.Sprintf("%s|", d.Padding) + "\n")
	for i := d.StartLine; i <= d.EndLine; i++ {
		line := strings.TrimPrefix(d.SnippetLines[i-1], d.CommonIndent)
		b.WriteString(lineStyle.Sprintf("%*d | ", d.MaxLineNumWidth, i) + line + "\n")
	}
	return b.String()
}

// underlineAndMessage marks the issue's columns on its first line and
// prints the message below.
func underlineAndMessage(d IssueData) string {
	message := lineStyle.Sprintf("%s= ", d.Padding) + messageStyle.Sprint(d.Message) + "\n"
	if !isValidLineRange(d.StartLine, d.EndLine, d.SnippetLines) {
		return message
	}

	first := d.SnippetLines[d.StartLine-1]
	indentWidth := visualWidth(d.CommonIndent)

	start := max(visualColumn(first, d.StartColumn)-indentWidth, 0)
	end := visualWidth(first) - indentWidth
	if d.EndLine == d.StartLine {
		end = visualColumn(first, d.EndColumn) - indentWidth
	}
	length := max(end-start, 1)

	return lineStyle.Sprintf("%s| ", d.Padding) + strings.Repeat(" ", start) +
		messageStyle.Sprint(strings.Repeat("~", length)) + "\n" + message
}

func suggestion(d IssueData) string {
	if d.Suggestion == "" {
		return ""
	}
	return suggestionStyle.Sprint("Suggestion: ") + d.Suggestion + "\n"
}

func note(d IssueData) string {
	if d.Note == "" {
		return ""
	}
	return suggestionStyle.Sprint("Note: ") + d.Note + "\n"
}

func isValidLineRange(startLine, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		startLine <= endLine &&
		endLine <= len(snippetLines)
}

// visualColumn is the display width of line before the 1-based byte
// column, with tabs expanded.
func visualColumn(line string, column int) int {
	if column < 1 {
		return 0
	}
	if column-1 < len(line) {
		line = line[:column-1]
	}
	return visualWidth(line)
}

func visualWidth(s string) int {
	width := 0
	for _, ch := range s {
		if ch == '\t' {
			width += tabWidth - width%tabWidth
		} else {
			width++
		}
	}
	return width
}

// findCommonIndent finds the indentation shared by every non-blank line.
func findCommonIndent(lines []string) string {
	var common []rune
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		indent := []rune(line[:len(line)-len(trimmed)])
		if !found {
			common, found = indent, true
			continue
		}
		common = commonPrefix(common, indent)
	}
	return string(common)
}

func commonPrefix(a, b []rune) []rune {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
