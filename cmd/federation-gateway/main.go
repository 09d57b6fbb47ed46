package main

import (
	"github.com/fedgraphql/gateway/server"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Federation Gateway",
	Run: func(cmd *cobra.Command, args []string) {
		println("Federation Gateway v0.0.0-rc")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Federation Gateway project",
	Run: func(cmd *cobra.Command, args []string) {
		server.Init()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Federation Gateway server",
	Run: func(cmd *cobra.Command, args []string) {
		server.Run()
	},
}

var registryConfig string

var registerCmd = &cobra.Command{
	Use:   "registry",
	Short: "Start the subgraph schema registry server",
	Run: func(cmd *cobra.Command, args []string) {
		graphs, err := server.LoadRegistryGraphs(registryConfig)
		if err != nil {
			panic(err)
		}
		if err := server.RunRegistry(graphs); err != nil {
			panic(err)
		}
	},
}

func main() {
	registerCmd.Flags().StringVar(&registryConfig, "config", "registry.yaml", "path to registry settings file")

	rootCmd := cobra.Command{}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
