package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/krakend/docs-search-index/internal/config"
	"github.com/krakend/docs-search-index/internal/prebuild"
	"github.com/krakend/docs-search-index/internal/runtime"
	"github.com/spf13/cobra"
)

var (
	// labelStyle for muted field names
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// okStyle for available tooling
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// failStyle for missing tooling
	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// warnStyle for recommendation warnings
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// boxStyle for the summary box
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("81")).
			Padding(0, 1)
)

var doctorConfig string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check which pre-build strategies can run on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(doctorConfig)
		if err != nil {
			return err
		}

		info := runtime.DetectPrebuildRuntime(cfg.Config, prebuild.Options{
			NodeCommand: cfg.NodeCommand,
			NodeScript:  cfg.NodeScript,
		})
		formatRuntime(cmd.OutOrStdout(), info)

		if !info.Runnable {
			return fmt.Errorf("prebuild_index %q cannot run here; the index will be written without pre-building", info.PrebuildIndex)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().StringVarP(&doctorConfig, "config", "c", "", "Options file or mkdocs.yml")
	rootCmd.AddCommand(doctorCmd)
}

// formatRuntime renders the runtime check as a summary box plus recommendations
func formatRuntime(w io.Writer, info *runtime.RuntimeInfo) {
	env := info.Environment

	node := failStyle.Render("not found")
	if env.HasNode {
		lunr := failStyle.Render("lunr missing")
		if env.HasLunr {
			lunr = okStyle.Render("lunr installed")
		}
		version := env.NodeVersion
		if env.NodeCommand != "" {
			version = env.NodeCommand
		}
		node = fmt.Sprintf("%s (%s), %s", okStyle.Render(version), env.NodePath, lunr)
	}

	embedded := failStyle.Render("not compiled in")
	if env.HasEmbedded {
		embedded = okStyle.Render("bleve")
	}

	mode := failStyle.Render(info.ExecutionMode)
	if info.Runnable {
		mode = okStyle.Render(info.ExecutionMode)
	}

	content := fmt.Sprintf("%s %s (strategy: %s)\n%s %s\n%s %s\n%s %s",
		labelStyle.Render("prebuild_index:"), info.PrebuildIndex, info.Strategy,
		labelStyle.Render("node:          "), node,
		labelStyle.Render("embedded:      "), embedded,
		labelStyle.Render("mode:          "), mode,
	)
	fmt.Fprintln(w, boxStyle.Render(content))

	for _, rec := range info.Recommendations {
		fmt.Fprintf(w, "\n%d. %s: %s\n   %s\n", rec.Priority, rec.Method, rec.Reason, labelStyle.Render(rec.ConfigSnippet))
		if rec.Warning != "" {
			fmt.Fprintf(w, "   %s\n", warnStyle.Render("Warning: "+rec.Warning))
		}
	}
}
