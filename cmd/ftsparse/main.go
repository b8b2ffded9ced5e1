// Command ftsparse parses full-text-search queries from the command line,
// either in-process or against a running queryd over RPC.
//
// Usage:
//
//	ftsparse parse 'stemmed words -excluded "exact phrase"' [--language french] [--json]
//	ftsparse parse --remote localhost:9000 'query'
//	echo 'one query per line' | ftsparse parse
//	ftsparse languages [--version 2]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
