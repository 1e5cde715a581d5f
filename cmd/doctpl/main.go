// Command doctpl renders and validates DOCX directive templates from the
// shell: render, validate, and batch.
package main

import (
	"os"

	"github.com/tmplforge/doctpl/cli"
)

func main() {
	os.Exit(cli.Main())
}
