package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

// cliNotifier prints voice alerts to the terminal. Alerts are printed and
// return at once since a CLI run has nothing to block.
type cliNotifier struct {
	w     io.Writer
	alert func(a ...interface{}) string
}

func newCLINotifier(w io.Writer) *cliNotifier {
	return &cliNotifier{
		w:     w,
		alert: color.New(color.FgYellow, color.Bold).SprintFunc(),
	}
}

func (n *cliNotifier) Alert(msg string) {
	fmt.Fprintf(n.w, "%s %s\n", n.alert("!"), msg)
}

func (n *cliNotifier) Log(msg string) {
	log.Info().Msg(msg)
}
