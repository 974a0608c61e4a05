// Command taskboard is the command-line front end for taskboard boards.
package main

import "github.com/mesh-intelligence/taskboard/internal/cli"

func main() {
	cli.Execute()
}
