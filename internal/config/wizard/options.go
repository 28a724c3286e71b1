package wizard

import "github.com/charmbracelet/huh"

// Authentication methods offered for member hosts.
const (
	AuthKey      = "key"
	AuthPassword = "password"
)

// Choice is a selectable wizard value.
type Choice struct {
	Value       string
	Label       string
	Description string
}

// AuthMethods lists the SSH authentication methods.
var AuthMethods = []Choice{
	{Value: AuthKey, Label: "Private key", Description: "read from a file on this machine"},
	{Value: AuthPassword, Label: "Password", Description: "supplied at run time via GALERACTL_SSH_PASSWORD"},
}

// SSTMethods lists the state snapshot transfer methods joiners can use.
var SSTMethods = []Choice{
	{Value: "rsync", Label: "rsync", Description: "simple, blocks the donor during transfer"},
	{Value: "mariabackup", Label: "mariabackup", Description: "non-blocking, needs SST credentials"},
	{Value: "mysqldump", Label: "mysqldump", Description: "logical dump, slowest"},
}

// ChoicesToOptions converts a Choice slice to huh options.
func ChoicesToOptions(choices []Choice) []huh.Option[string] {
	opts := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(c.Label+" - "+c.Description, c.Value)
	}
	return opts
}
