package galera

import (
	"fmt"
	"path"
	"strings"

	"github.com/imamik/galeractl/internal/cluster"
)

// Step names, in execution order.
const (
	StepRefreshPackageIndex    = "refresh-package-index"
	StepInstallPackagingTool   = "install-packaging-tool"
	StepInstallDatabase        = "install-database"
	StepWriteReplicationConfig = "write-replication-config"
	StepWriteStateMarker       = "write-state-marker"
	StepStopDatabase           = "stop-database"
	StepCreateRuntimeDir       = "create-runtime-dir"
	StepOwnRuntimeDir          = "own-runtime-dir"
)

const (
	runtimeDir = "/run/mysqld"
	heredocEOF = "GALERACTL_EOF"
	aptEnv     = "DEBIAN_FRONTEND=noninteractive"
)

// Step is one remote shell command. A sequence never continues past a failed step.
type Step struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

// Sequencer turns a plan into the ordered list of remote steps.
type Sequencer struct {
	renderer *Renderer
}

// NewSequencer creates a Sequencer that embeds files rendered by r.
func NewSequencer(r *Renderer) *Sequencer {
	return &Sequencer{renderer: r}
}

// Renderer returns the renderer used for the file-writing steps.
func (s *Sequencer) Renderer() *Renderer {
	return s.renderer
}

// Sequence returns the eight provisioning steps for plan. The step names and
// their order are the same for every role; only the rendered file content
// differs between the primary and joiners.
//
// Every step can be re-run safely: package installs and file writes converge,
// stopping a stopped service succeeds, and mkdir/chown are idempotent.
func (s *Sequencer) Sequence(plan cluster.Plan) []Step {
	rendered := s.renderer.Render(plan)

	return []Step{
		{Name: StepRefreshPackageIndex, Command: aptEnv + " apt-get update"},
		{Name: StepInstallPackagingTool, Command: aptEnv + " apt-get install -y software-properties-common"},
		{Name: StepInstallDatabase, Command: aptEnv + " apt-get install -y mariadb-server mariadb-client"},
		{Name: StepWriteReplicationConfig, Command: writeFileCommand(rendered.Config)},
		{Name: StepWriteStateMarker, Command: writeFileCommand(rendered.State)},
		// Package install auto-starts the server without wsrep; it must be
		// down before the member is started with the new configuration.
		{Name: StepStopDatabase, Command: "systemctl stop mariadb || service mariadb stop"},
		{Name: StepCreateRuntimeDir, Command: "mkdir -p " + shellQuote(runtimeDir)},
		{Name: StepOwnRuntimeDir, Command: "chown -R mysql:mysql " + shellQuote(runtimeDir)},
	}
}

// StepNames lists step names in execution order.
func StepNames() []string {
	return []string{
		StepRefreshPackageIndex,
		StepInstallPackagingTool,
		StepInstallDatabase,
		StepWriteReplicationConfig,
		StepWriteStateMarker,
		StepStopDatabase,
		StepCreateRuntimeDir,
		StepOwnRuntimeDir,
	}
}

// writeFileCommand builds a shell command that replaces f.Path with f.Content.
// A quoted heredoc keeps the content free of shell expansion.
func writeFileCommand(f File) string {
	content := f.Content
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return fmt.Sprintf("mkdir -p %s && cat > %s <<'%s'\n%s%s",
		shellQuote(path.Dir(f.Path)), shellQuote(f.Path), heredocEOF, content, heredocEOF)
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
