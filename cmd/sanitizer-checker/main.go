// Command sanitizer-checker analyzes a dependency graph's field against a
// set of attack contexts and reports which are reachable.
package main

import (
	"os"

	"github.com/soufianos01/sanitizer-checker/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
