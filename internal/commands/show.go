// internal/commands/show.go
package enginemark

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
	Long:  `The 'show' command groups subcommands that display resources or information related to enginemark.`,
}

func init() {
	rootCmd.AddCommand(showCmd)
}
