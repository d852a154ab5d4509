package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/app"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/output"
)

type Dependencies struct {
	App *app.App
	In  io.Reader
	Out io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps.In == nil {
		deps.In = os.Stdin
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}

	rootCmd := &cobra.Command{
		Use:           "meetctl",
		Short:         "Start, join and chat in MeetFlow meetings",
		Long:          "A terminal client for MeetFlow: sign in, start meetings, and join them with live chat and captions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewLoginCmd(deps))
	rootCmd.AddCommand(NewLogoutCmd(deps))
	rootCmd.AddCommand(NewStartCmd(deps))
	rootCmd.AddCommand(NewJoinCmd(deps))

	return rootCmd
}

func formatter(deps *Dependencies) *output.Formatter {
	return output.NewFormatter(deps.Out)
}
