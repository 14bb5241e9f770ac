// Command panedemo loads a file, runs a highlighter chain configured
// from a TOML document over it, and either dumps the resulting display
// buffer as plain text or renders it live to the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/highlight"
	"github.com/davidaciko/panecore/internal/hlconfig"
	"github.com/davidaciko/panecore/internal/option"
	"github.com/davidaciko/panecore/internal/tcellui"
	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

var (
	version    = "dev"
	configPath string
	live       bool
)

var rootCmd = &cobra.Command{
	Use:     "panedemo [file]",
	Short:   "Render a file through a configured highlighter chain",
	Long:    `panedemo loads a file, builds the highlighter chain described by a TOML highlighter configuration, and shows what it produces: as plain text by default, or live in the terminal with --live.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	RunE:    runDemo,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a highlighter-chain TOML configuration")
	rootCmd.Flags().BoolVarP(&live, "live", "l", false, "render to the terminal instead of dumping text")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "panedemo: %v\n", err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	buf := textbuf.NewMemBuffer(textbuf.NewBufferID(), string(content))

	table := option.DefaultTable()
	group, faces, err := loadChain(configPath, table)
	if err != nil {
		return err
	}

	disp := bufferDisplay(buf)
	ctx := corectx.NewStaticContext(buf, table, corectx.NewSelectionList(corectx.NewCursor(unit.Pos(0, 0))), faces)
	group.Highlighter()(ctx, highlight.FlagHighlight, disp)
	disp.Optimize()

	if live {
		return renderLive(disp)
	}
	return dumpText(cmd, disp)
}

// loadChain builds the root highlighter group from configPath, or an
// empty group with no faces when no configuration was given, so
// panedemo works with nothing more than a file argument.
func loadChain(configPath string, table *option.Table) (*highlight.Group, map[string]face.Face, error) {
	if configPath == "" {
		return highlight.NewGroup(), nil, nil
	}
	f, err := os.Open(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", configPath, err)
	}
	defer f.Close()
	g, faces, err := hlconfig.Load(f, table)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", configPath, err)
	}
	return g, faces, nil
}

func bufferDisplay(buf textbuf.Buffer) *display.DisplayBuffer {
	var lines []display.DisplayLine
	for i := unit.LineCount(0); i < buf.LineCount(); i++ {
		l := buf.Line(i)
		lines = append(lines, display.DisplayLine{Atoms: []display.DisplayAtom{
			display.NewBufferRangeAtom(buf, unit.Pos(i, 0), unit.Pos(i, unit.ByteCount(len(l)))),
		}})
	}
	d := &display.DisplayBuffer{Lines: lines}
	d.ComputeRange()
	return d
}

func dumpText(cmd *cobra.Command, disp *display.DisplayBuffer) error {
	out := cmd.OutOrStdout()
	for _, line := range disp.Lines {
		for _, atom := range line.Atoms {
			if _, err := out.Write(atom.Content()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}

func renderLive(disp *display.DisplayBuffer) error {
	screen, err := tcellui.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Shutdown()

	screen.Render(disp, 0, 0)
	screen.WaitForKeyPress()
	return nil
}
