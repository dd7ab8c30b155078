// Command llamavoice is a terminal voice chat client and chat backend.
package main

import "github.com/diogo/llamavoice/internal/commands"

func main() {
	commands.Execute()
}
