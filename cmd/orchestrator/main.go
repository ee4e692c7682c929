// Command orchestrator runs the MCP server implementing the queue,
// board, knowledge, session-template, workflow, and custom-tool
// components over stdio (spec.md §6).
//
// Usage:
//
//	orchestrator serve    # Start the MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-isatty"

	agentctlserver "github.com/anthropics/agentctl/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("orchestrator v%s\n", agentctlserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, err := agentctlserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	printBanner()

	return server.ServeStdio(s)
}

// printBanner writes a one-line startup notice to stderr, but only
// when stderr is an interactive terminal — a pipe or log file gets no
// banner, since stdout is reserved for the stdio MCP transport and an
// unconditional stderr banner would clutter redirected logs.
func printBanner() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return
	}
	fmt.Fprintf(os.Stderr, "orchestrator v%s starting (stdio transport)\n", agentctlserver.Version)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `orchestrator v%s — multi-agent coordination MCP server

Usage:
  orchestrator serve    Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "orchestrator": {
        "command": "orchestrator",
        "args": ["serve"]
      }
    }
  }

  Reads agentctl.yaml from the workspace root (walking up from the
  current directory looking for a .agent-workspace marker).
`, agentctlserver.Version)
}
