// Command guardvet runs the guardcheck analyzer as a standalone vet tool.
//
//	go vet -vettool=$(which guardvet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/gnoswap-labs/guard/guardcheck"
)

func main() { singlechecker.Main(guardcheck.Analyzer) }
