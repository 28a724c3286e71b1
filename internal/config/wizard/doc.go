// Package wizard provides an interactive configuration wizard for galeractl.
//
// It uses charmbracelet/huh forms to collect the settings an operator
// usually changes (listen address, metadata store, SSH credentials and
// provisioning limits). RunWizard returns a Result; ToConfig merges it over
// the defaults and WriteConfig writes the YAML file that config.Load reads.
package wizard
