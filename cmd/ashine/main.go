// Command ashine runs the AShineMobile booking API and offers a terminal
// version of the booking form.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errReported marks failures whose details were already printed.
var errReported = errors.New("reported")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ashine",
		Short: "AShineMobile booking API and CLI",
		Long: `ashine serves the booking endpoint of the AShineMobile car detailing site
and can submit a booking from the terminal through the same form rules.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newBookCmd(), newVersionCmd())
	return root
}
