package main

import (
	"fmt"

	"github.com/skillhubhq/skillhub/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			if out, err := version.Get().JSON(); err == nil {
				fmt.Println(out)
				return
			}
		}
		fmt.Println(version.Get().String())
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "output version information as JSON")
}
