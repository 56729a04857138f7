// Command advpal plays branching interactive-fiction stories from the
// terminal. See internal/cli for the command set.
package main

import "advpal/internal/cli"

func main() {
	cli.Execute()
}
