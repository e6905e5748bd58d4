package formatter

type GeneralIssueFormatter struct{}

func (f *GeneralIssueFormatter) IssueTemplate() string {
	return `{{header .}}{{snippet .}}{{underline .}}{{suggestion .}}{{note .}}
`
}

// CatchIssueFormatter adds the shape of a guarded function to issues about
// a missing or misplaced catcher.
type CatchIssueFormatter struct{}

func (f *CatchIssueFormatter) IssueTemplate() string {
	return `{{header .}}{{snippet .}}{{underline .}}{{suggestion .}}{{note .}}{{.Padding}}= a guarded function looks like:
{{.Padding}}|     func f() (res guard.Option[T]) {
{{.Padding}}|         defer guard.Catch(&res)
{{.Padding}}|         guard.Guard(cond)
{{.Padding}}|         ...

`
}
