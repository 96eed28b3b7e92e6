// Package ui renders application output with terminal styling.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"voxsearch/internal/i18n"
	"voxsearch/internal/imagerec"
	"voxsearch/internal/preview"
	"voxsearch/internal/search"
	"voxsearch/internal/speech"
	"voxsearch/internal/suggest"
)

// Display renders styled terminal output.
type Display struct {
	width    int
	renderer *glamour.TermRenderer

	titleStyle   lipgloss.Style
	promptStyle  lipgloss.Style
	infoStyle    lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
	dimStyle     lipgloss.Style
	headerStyle  lipgloss.Style
	badgeStyles  map[suggest.Kind]lipgloss.Style
}

// NewDisplay creates a display sized to the current terminal.
func NewDisplay() *Display {
	width := 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)

	return &Display{
		width:        width,
		renderer:     renderer,
		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		promptStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		infoStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		warnStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		dimStyle:     lipgloss.NewStyle().Faint(true),
		headerStyle:  lipgloss.NewStyle().Bold(true).Underline(true),
		badgeStyles: map[suggest.Kind]lipgloss.Style{
			suggest.KindHistory:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			suggest.KindTrending: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
			suggest.KindSmart:    lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
			suggest.KindRelated:  lipgloss.NewStyle().Foreground(lipgloss.Color("150")),
		},
	}
}

// ClearScreen clears the terminal.
func (d *Display) ClearScreen() {
	fmt.Print("\033[2J\033[H")
}

// PrintWelcome displays the welcome banner.
func (d *Display) PrintWelcome(providerName string) {
	banner := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2).
		Foreground(lipgloss.Color("39")).
		Render("voxsearch - search with text, voice and images")
	fmt.Println(banner)
	fmt.Println(d.dimStyle.Render("Provider: " + providerName))
	fmt.Println(d.dimStyle.Render("Type a query, ? for suggestions, or /help for commands"))
	fmt.Println()
}

// PrintHelp lists the available commands.
func (d *Display) PrintHelp() {
	lines := []string{
		"<text>            search for text",
		"?<prefix>         show suggestions for prefix (bare ? lists recent and trending)",
		"!<n>              search suggestion number n",
		"/voice            start a voice query",
		"/image <path> [t] classify an image (t: general animal plant dish car landmark)",
		"/open [n]         preview result n of the current query, or the top results",
		"/history          show past queries",
		"/clearhistory     forget past queries",
		"/mock             switch to the offline sample provider",
		"/clear            clear the screen",
		"/exit             quit",
	}
	for _, l := range lines {
		fmt.Println("  " + d.dimStyle.Render(l))
	}
}

// PrintGoodbye displays the goodbye message.
func (d *Display) PrintGoodbye() {
	fmt.Println()
	fmt.Println(d.titleStyle.Render("Goodbye!"))
}

// PrintPrompt displays the user input prompt.
func (d *Display) PrintPrompt() {
	fmt.Print(d.promptStyle.Render("\n> "))
}

// PrintInfo displays an info message.
func (d *Display) PrintInfo(msg string) {
	fmt.Println(d.infoStyle.Render("i " + msg))
}

// PrintWarning displays a warning message.
func (d *Display) PrintWarning(msg string) {
	fmt.Println(d.warnStyle.Render("! " + msg))
}

// PrintError displays an error message.
func (d *Display) PrintError(err error) {
	fmt.Println(d.errorStyle.Render(fmt.Sprintf("x Error: %v", err)))
}

// PrintSuccess displays a success message.
func (d *Display) PrintSuccess(msg string) {
	fmt.Println(d.successStyle.Render("+ " + msg))
}

// PrintSuggestions renders a suggestion list with kind badges and
// selection numbers usable with the ! command.
func (d *Display) PrintSuggestions(items []suggest.Item) {
	if len(items) == 0 {
		d.PrintInfo("no suggestions")
		return
	}

	n := 0
	for _, it := range items {
		if it.Kind == suggest.KindHeader {
			fmt.Println(d.headerStyle.Render(it.Text))
			continue
		}
		n++
		badge := d.badgeStyles[it.Kind].Render("[" + string(it.Kind) + "]")
		line := fmt.Sprintf("  %2d. %s %s", n, it.Text, badge)
		if it.Count > 0 {
			line += d.dimStyle.Render(fmt.Sprintf(" (%d)", it.Count))
		}
		fmt.Println(line)
	}
}

// PrintQuery renders the outcome of one query: its results as markdown,
// or its error.
func (d *Display) PrintQuery(q search.Query) {
	if q.Loading {
		d.PrintInfo("searching for " + q.Text + "...")
		return
	}
	if q.Error != "" {
		d.PrintError(fmt.Errorf("%s", q.Error))
		d.PrintInfo("use /mock to switch to the offline sample provider")
		return
	}
	if len(q.Results) == 0 {
		d.PrintInfo("no results for " + q.Text)
		return
	}

	var md strings.Builder
	fmt.Fprintf(&md, "## Results for %q\n\n", q.Text)
	for i, r := range q.Results {
		fmt.Fprintf(&md, "%d. **%s**", i+1, r.Title)
		if r.Kind != search.KindWeb {
			fmt.Fprintf(&md, " _(%s)_", r.Kind)
		}
		fmt.Fprintf(&md, "\n   %s\n", r.Content)
		if r.URL != "" {
			fmt.Fprintf(&md, "   <%s>\n", r.URL)
		}
		fmt.Fprintf(&md, "   relevance %.0f%%", r.Relevance*100)
		if !r.PublishedAt.IsZero() {
			fmt.Fprintf(&md, " · %s", r.PublishedAt.Format("2006-01-02"))
		}
		md.WriteString("\n\n")
	}

	d.renderMarkdown(md.String())
}

// PrintRecognition shows the live state of a voice session.
func (d *Display) PrintRecognition(snap speech.Snapshot) {
	switch snap.State {
	case speech.StateListening:
		status := d.infoStyle.Render(i18n.T("speech_listening"))
		fmt.Printf("\r\033[2K%s %s%s", status, snap.FinalText, d.dimStyle.Render(snap.InterimText))
	case speech.StateRecognizing:
		status := d.infoStyle.Render(i18n.T("speech_recognizing"))
		fmt.Printf("\r\033[2K%s %s%s", status, snap.FinalText, d.dimStyle.Render(snap.InterimText))
	case speech.StateError:
		fmt.Println()
		d.PrintError(fmt.Errorf("%s", snap.ErrorMessage))
	case speech.StateIdle:
		fmt.Println()
	}
}

// PrintClassification renders image recognition results.
func (d *Display) PrintClassification(items []imagerec.ResultItem) {
	if len(items) == 0 {
		d.PrintInfo("nothing recognized")
		return
	}

	fmt.Println(d.headerStyle.Render("Recognition results"))
	for _, it := range items {
		line := fmt.Sprintf("  %-24s %5.1f%%", it.Label, it.Score*100)
		if it.Year != "" {
			line += d.dimStyle.Render("  year " + it.Year)
		}
		fmt.Println(line)
		if it.Description != "" {
			fmt.Println("    " + d.dimStyle.Render(truncate(it.Description, d.width-8)))
		}
		if it.WikiURL != "" {
			fmt.Println("    " + d.dimStyle.Render(it.WikiURL))
		}
	}
}

// PrintPreview renders a fetched page preview.
func (d *Display) PrintPreview(p preview.Preview) {
	if p.Error != nil {
		d.PrintError(fmt.Errorf("preview failed: %w", p.Error))
		return
	}

	var md strings.Builder
	title := p.Title
	if title == "" {
		title = p.URL
	}
	fmt.Fprintf(&md, "### %s\n\n%s\n\n<%s>\n", title, p.Excerpt, p.URL)
	d.renderMarkdown(md.String())
	fmt.Println(d.dimStyle.Render(fmt.Sprintf("fetched in %s", formatDuration(p.Duration))))
}

// PrintHistory lists past queries, newest first.
func (d *Display) PrintHistory(entries []string) {
	if len(entries) == 0 {
		d.PrintInfo("no search history yet")
		return
	}
	fmt.Println(d.headerStyle.Render("Search history"))
	for i, e := range entries {
		fmt.Printf("  %2d. %s\n", i+1, e)
	}
}

func (d *Display) renderMarkdown(md string) {
	if d.renderer != nil {
		if rendered, err := d.renderer.Render(md); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Print(md)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(dur time.Duration) string {
	if dur < time.Second {
		return fmt.Sprintf("%dms", dur.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", dur.Seconds())
}
