// OpenPress is a publishing stack built around a rich text editor. The
// stack owns the post documents: a prosemirror schema with custom atomic
// blocks for provider embeds and ad snippets, a paste pipeline that uploads
// images and classifies URLs, toolbar operations on the selected block, and
// markdown and HTML exports.
package main

import (
	"fmt"
	"os"

	"github.com/openpress/openpress-stack/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		if err != cmd.ErrUsage {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
			os.Exit(1)
		}
	}
}
