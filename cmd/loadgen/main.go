package main

import (
	"flag"
	"fmt"
	"os"

	loadgen "github.com/firmaleg/sescore/internal/loadgen"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "load":
		loadCmd := flag.NewFlagSet("load", flag.ExitOnError)
		configPath := loadCmd.String("config", "", "Path to config file")
		loadCmd.Parse(os.Args[2:])
		if *configPath == "" {
			fmt.Println("Error: --config is required for 'load'")
			loadCmd.Usage()
			os.Exit(1)
		}
		fmt.Printf("Running 'load' with config: %s\n", *configPath)
		loadgen.Load(configPath)

	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`Usage: loadgen <subcommand> --config <path>`)
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  load    --config <path>   Generate synthetic signatures using config file")
	fmt.Println("  help                      Show this help message")
}
