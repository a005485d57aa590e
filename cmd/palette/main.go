// Command palette previews the configured column colors in both themes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/evanschultz/tavla/internal/config"
	"github.com/evanschultz/tavla/internal/platform"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		showANSI   bool
	)
	fs.StringVar(&configPath, "config", "", "path to config TOML (defaults to the tavla config)")
	fs.BoolVar(&showANSI, "ansi", false, "also print the ANSI 256 color grid for picking accents")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if configPath == "" {
		paths, err := platform.Resolve(platform.Request{})
		if err != nil {
			return err
		}
		configPath = paths.ConfigPath
	}
	cfg, err := config.Load(configPath, config.Default("palette.db"))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}

	_, _ = fmt.Fprintln(stdout, renderPalette(cfg.Board.Columns))
	if showANSI {
		_, _ = fmt.Fprintln(stdout)
		_, _ = fmt.Fprint(stdout, renderANSIGrid())
	}
	return nil
}

// renderPalette draws one row per column with its card sample in each theme.
func renderPalette(columns []config.ColumnConfig) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Column", "ID", "Accent", "Light", "Dark").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, c := range columns {
		accent := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Accent)).Bold(true).Render(c.Accent)
		if c.Accent == "" {
			accent = "-"
		}
		t.Row(
			c.Title,
			c.ID,
			accent,
			swatch(c.Title, c.Background, c.Text),
			swatch(c.Title, c.DarkBackground, c.DarkText),
		)
	}
	return t.Render()
}

// swatch renders title on bg with fg and labels the pair underneath.
func swatch(title, bg, fg string) string {
	style := lipgloss.NewStyle().Width(18).Align(lipgloss.Center)
	if bg != "" {
		style = style.Background(lipgloss.Color(bg))
	}
	if fg != "" {
		style = style.Foreground(lipgloss.Color(fg))
	}
	label := strings.TrimSpace(coalesce(bg, "default") + " / " + coalesce(fg, "default"))
	return style.Render(title) + "\n" + label
}

// renderANSIGrid prints the 16 standard colors, the 6x6x6 cube, and the
// grayscale ramp.
func renderANSIGrid() string {
	var b strings.Builder
	b.WriteString("Standard 16 Colors:\n")
	b.WriteString(renderColorBlock(0, 15, 8))
	b.WriteString("\n216 Color Cube (16-231):\n")
	for i := 0; i < 6; i++ {
		b.WriteString(renderColorBlock(16+i*36, 16+(i+1)*36-1, 6))
	}
	b.WriteString("\nGrayscale (232-255):\n")
	b.WriteString(renderColorBlock(232, 255, 12))
	return b.String()
}

func renderColorBlock(start, end, perRow int) string {
	var b strings.Builder
	count := 0
	for i := start; i <= end; i++ {
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(strconv.Itoa(i))).
			Foreground(contrastColor(i)).
			Width(6).
			Align(lipgloss.Center)
		b.WriteString(style.Render(fmt.Sprintf("%3d", i)))

		count++
		if count%perRow == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	if count%perRow != 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// contrastColor picks white or black text for an ANSI 256 background.
func contrastColor(idx int) lipgloss.Color {
	switch {
	case idx < 16:
		if idx == 0 || idx == 1 || idx == 4 || idx == 5 || idx == 8 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	case idx >= 232:
		if idx < 244 {
			return lipgloss.Color("15")
		}
		return lipgloss.Color("0")
	default:
		return lipgloss.Color("15")
	}
}

func coalesce(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
