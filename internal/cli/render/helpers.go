package render

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

var (
	labelStyle     = color.New(color.Faint)
	idStyle        = color.New(color.FgCyan)
	amountStyle    = color.New(color.FgYellow)
	headerStyle    = color.New(color.FgCyan, color.Bold)
	sectionStyle   = color.New(color.Bold, color.FgHiWhite)
	timestampStyle = color.New(color.Faint)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Extract just the error message part (after the last colon if it's an error chain)
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	// Capitalize first letter
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// FormatAmount renders a smallest-unit amount in token units, e.g. 1500000 as "1.5 USDC"
func FormatAmount(amount *big.Int, token config.TokenConfig) string {
	if amount == nil {
		return "-"
	}
	s := FormatUnits(amount, token.Decimals)
	if token.Symbol == "" {
		return s
	}
	return s + " " + token.Symbol
}

// FormatUnits renders amount / 10^decimals without trailing zeros
func FormatUnits(amount *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// FormatState title-cases a state, e.g. FAILED_PENDING_VOTE as "Failed Pending Vote"
func FormatState(state models.State) string {
	words := strings.ReplaceAll(strings.ToLower(string(state)), "_", " ")
	return cases.Title(language.English).String(words)
}

// stateColor picks the display color of a state
func stateColor(state models.State) *color.Color {
	switch state {
	case models.StateActive:
		return color.New(color.FgCyan)
	case models.StateFailedPendingVote:
		return color.New(color.FgYellow)
	case models.StateRemediationActive:
		return color.New(color.FgMagenta)
	case models.StateCompleted:
		return color.New(color.FgGreen)
	case models.StateFailedFinal:
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

// ColoredState renders the state in its display color
func ColoredState(state models.State) string {
	return stateColor(state).Sprint(FormatState(state))
}

// shortID abbreviates an id to its first 10 hex characters
func shortID(id common.Hash) string {
	return id.Hex()[:10]
}

// formatAddress renders an address, "(none)" for the zero address
func formatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return labelStyle.Sprint("(none)")
	}
	return addr.Hex()
}

// formatTime renders a timestamp in UTC
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

// formatRemaining renders how long until deadline, or how long since it lapsed
func formatRemaining(deadline, now time.Time) string {
	d := deadline.Sub(now).Round(time.Second)
	if d <= 0 {
		return color.New(color.FgRed).Sprintf("lapsed %s ago", humanDuration(-d))
	}
	return fmt.Sprintf("in %s", humanDuration(d))
}

// humanDuration renders a duration with a day component when it has one
func humanDuration(d time.Duration) string {
	days := d / (24 * time.Hour)
	rest := d % (24 * time.Hour)
	switch {
	case days > 0 && rest == 0:
		return fmt.Sprintf("%dd", days)
	case days > 0:
		return fmt.Sprintf("%dd%s", days, rest)
	default:
		return d.String()
	}
}

// getRelativePath returns the relative path from current directory
func getRelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}

	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}

	return relPath
}
