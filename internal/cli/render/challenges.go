package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

type TableData [][]string

// ChallengesRenderer renders challenge lists as a borderless table
type ChallengesRenderer struct {
	out   io.Writer
	token config.TokenConfig
	now   time.Time
}

// NewChallengesRenderer creates a new challenges renderer
func NewChallengesRenderer(out io.Writer, token config.TokenConfig) *ChallengesRenderer {
	return &ChallengesRenderer{
		out:   out,
		token: token,
	}
}

// Render implements Renderer for challenge lists
func (r *ChallengesRenderer) Render(result *usecase.ChallengeListResult) error {
	if len(result.Challenges) == 0 {
		fmt.Fprintln(r.out, "No challenges found")
		return nil
	}
	r.now = result.Now

	data := TableData{{
		sectionStyle.Sprint("ID"),
		sectionStyle.Sprint("STATE"),
		sectionStyle.Sprint("AMOUNT"),
		sectionStyle.Sprint("OWNER"),
		sectionStyle.Sprint("VOTES"),
		sectionStyle.Sprint("NEXT DEADLINE"),
	}}
	for _, c := range result.Challenges {
		data = append(data, r.buildRow(c))
	}

	fmt.Fprint(r.out, renderTableWithWidths(data, calculateTableColumnWidths([]TableData{data})))
	fmt.Fprintln(r.out)
	r.renderSummary(result.Summary)
	return nil
}

func (r *ChallengesRenderer) buildRow(c *models.Challenge) []string {
	votes := fmt.Sprintf("%d/%d", c.Voting.YesCount, c.Voting.RequiredVotes)
	if c.Voting.NoCount > 0 {
		votes += color.New(color.FgRed).Sprintf(" (%d no)", c.Voting.NoCount)
	}

	return []string{
		idStyle.Sprint(shortID(c.ID)),
		ColoredState(c.State),
		FormatAmount(c.Amount, r.token),
		c.Owner.Hex(),
		votes,
		r.nextDeadline(c),
	}
}

// nextDeadline shows the deadline that governs the challenge's current state
func (r *ChallengesRenderer) nextDeadline(c *models.Challenge) string {
	var deadline *time.Time
	switch c.State {
	case models.StateActive:
		deadline = &c.EndTime
	case models.StateFailedPendingVote:
		deadline = c.VotingDeadline
	case models.StateRemediationActive:
		deadline = c.RemediationDeadline
	}
	if deadline == nil {
		return timestampStyle.Sprint("-")
	}
	if r.now.IsZero() {
		return formatTime(*deadline)
	}
	return formatRemaining(*deadline, r.now)
}

func (r *ChallengesRenderer) renderSummary(summary usecase.ChallengeSummary) {
	parts := make([]string, 0, len(summary.ByState))
	for _, state := range models.AllStates() {
		if n := summary.ByState[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, stateColor(state).Sprint(strings.ToLower(FormatState(state)))))
		}
	}
	fmt.Fprintf(r.out, "Total: %d (%s)\n", summary.Total, strings.Join(parts, ", "))
	if summary.Escrowed != nil {
		fmt.Fprintf(r.out, "Escrowed: %s\n", amountStyle.Sprint(FormatAmount(summary.Escrowed, r.token)))
	}
}

// renderTableWithWidths renders a table with the given column widths
func renderTableWithWidths(tableData TableData, columnWidths []int) string {
	if len(tableData) == 0 {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}

	colConfigs := make([]table.ColumnConfig, len(columnWidths))
	for i, width := range columnWidths {
		colConfigs[i] = table.ColumnConfig{
			Number:   i + 1,
			Align:    text.AlignLeft,
			WidthMin: width,
			WidthMax: width,
		}
	}
	t.SetColumnConfigs(colConfigs)

	for _, row := range tableData {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = cell
		}
		t.AppendRow(tableRow)
	}

	return t.Render() + "\n"
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripAnsiCodes removes ANSI color codes from a string
func stripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// calculateTableColumnWidths calculates the maximum width for each column across all tables
func calculateTableColumnWidths(tables []TableData) []int {
	if len(tables) == 0 {
		return nil
	}

	maxCols := 0
	for _, table := range tables {
		for _, row := range table {
			if len(row) > maxCols {
				maxCols = len(row)
			}
		}
	}

	widths := make([]int, maxCols)
	for _, table := range tables {
		for _, row := range table {
			for colIdx, cell := range row {
				// Strip ANSI codes for width calculation
				cellWidth := len([]rune(stripAnsiCodes(cell)))
				if cellWidth > widths[colIdx] {
					widths[colIdx] = cellWidth
				}
			}
		}
	}

	return widths
}

var _ Renderer[*usecase.ChallengeListResult] = (*ChallengesRenderer)(nil)
