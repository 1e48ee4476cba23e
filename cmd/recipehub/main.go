package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// 通过 ldflags 注入
	Version = "dev"
	Commit  = "unknown"
)

// @title recipehub API
// @version 1.0
// @description 菜谱分享后端：菜谱、订阅、收藏与购物清单
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "recipehub",
	Short:         "recipehub - recipe sharing backend",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("recipehub version %s\nCommit: %s\n", Version, Commit))
	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, benchCmd)
}
