package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"imgopt/internal/metadata"
	"imgopt/internal/processor"
	"imgopt/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "List candidate images and the metadata they carry, without modifying anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		files, err := processor.Scan(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, "No images found")
			return nil
		}

		root, _ := filepath.Abs(args[0])
		var total int64
		withMetadata := 0
		for _, f := range files {
			total += f.Size
			name := f.Path
			if rel, err := filepath.Rel(root, f.Path); err == nil {
				name = rel
			}

			report, err := metadata.Inspect(f.Path)
			var detail string
			switch {
			case err != nil:
				detail = scanWarnStyle.Render("unreadable: " + err.Error())
			case report.Empty():
				detail = scanDimStyle.Render("no metadata")
			default:
				withMetadata++
				detail = scanValueStyle.Render(metadata.Describe(report.Blocks))
			}

			fmt.Fprintf(out, "%s %s %s %s\n",
				scanBulletStyle.Render("-"),
				scanFileStyle.Render(name),
				scanDimStyle.Render(fmt.Sprintf("(%.1f KiB)", float64(f.Size)/1024)),
				detail,
			)
			for _, b := range report.Blocks {
				for _, note := range b.Notes {
					fmt.Fprintf(out, "    %s %s\n", scanBulletStyle.Render("·"), scanNoteStyle.Render(note))
				}
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, tui.RenderSummary([]tui.SummaryRow{
			{Label: "Images found", Value: fmt.Sprintf("%d", len(files))},
			{Label: "Carrying metadata", Value: fmt.Sprintf("%d", withMetadata)},
			{Label: "Total size", Value: message.NewPrinter(language.English).Sprintf("%.2f MiB (%d bytes)", float64(total)/(1<<20), total)},
		}))
		return nil
	},
}

var (
	scanFileStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	scanWarnStyle   = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	scanNoteStyle   = lipgloss.NewStyle().Foreground(tui.ColorInk)
	scanDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(scanCmd)
}
