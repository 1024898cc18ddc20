// Command odataq parses and binds OData query options against a YAML schema.
//
// Usage:
//
//	odataq filter --schema schema.yaml --resource Products "Price gt @p" --alias @p=5
//	odataq orderby --schema schema.yaml --resource Products "Price desc, Name"
//	odataq levels max
//	odataq version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
