package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// ConfigRenderer renders the checkout identity and storage choice
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{out: out}
}

// RenderConfig shows the values ledger commands run with and where they come from
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	fmt.Fprintln(r.out, "📋 Checkout config:")

	identity := formatAddress(result.Caller)
	if result.CallerOverridden {
		identity += labelStyle.Sprint("  (from --as or PLEDGE_IDENTITY)")
	}
	fmt.Fprintf(r.out, "Identity:  %s\n", identity)
	fmt.Fprintf(r.out, "Storage:   %s %s\n", result.Backend, labelStyle.Sprintf("at %s", getRelativePath(result.StorePath)))
	fmt.Fprintf(r.out, "Defaults:  %s\n", result.Source)

	path := getRelativePath(result.Path)
	if !result.Exists {
		path = labelStyle.Sprintf("%s (not written yet)", path)
	}
	fmt.Fprintf(r.out, "📁 %s\n", path)

	if !result.HasCaller() {
		fmt.Fprintln(r.out, FormatWarning("No identity: create, vote and complete need --as <address>"))
	}
	return nil
}

// RenderSet confirms a saved value
func (r *ConfigRenderer) RenderSet(result *usecase.SetConfigResult) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Set %s to %s", result.Key, result.Value)))
	if result.Key == config.ConfigKeyStorage {
		fmt.Fprintln(r.out, FormatWarning("Challenges in the previous backend are not copied over"))
	}
	fmt.Fprintf(r.out, "📁 %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderRemove confirms a cleared value
func (r *ConfigRenderer) RenderRemove(result *usecase.RemoveConfigResult) error {
	switch result.Key {
	case config.ConfigKeyIdentity:
		fmt.Fprintln(r.out, FormatSuccess("Removed identity "+result.RemovedValue))
		fmt.Fprintln(r.out, FormatWarning("Ledger commands now need --as <address>"))
	case config.ConfigKeyStorage:
		fmt.Fprintln(r.out, FormatSuccess("Storage back to "+result.UpdatedConfig.Storage))
	}
	fmt.Fprintf(r.out, "📁 %s\n", getRelativePath(result.ConfigPath))
	return nil
}
