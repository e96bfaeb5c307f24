// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command httpwire serves and sends HTTP/1.1 messages with the httpwire
// packages.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCmd()
	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "httpwire",
		Short:         "Serve and send HTTP/1.1 messages",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(
		newServeCmd(),
		newGetCmd(),
	)
	return cmd
}
