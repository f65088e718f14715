package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show sescore version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sescore %s\n", Version)
	},
}
