package transaction

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"napm/pkg/database"
)

// HookWhen positions a hook relative to the file actions.
type HookWhen string

const (
	// PreTransaction hooks run after journaling, before any file action.
	PreTransaction HookWhen = "pre-transaction"
	// PostTransaction hooks run after all file actions, before the
	// database update commits.
	PostTransaction HookWhen = "post-transaction"
)

// Hook is an opaque external command a package declares to run around a
// transaction. A failing mandatory hook aborts the transaction; a failing
// optional hook is only logged.
type Hook struct {
	Name      string
	When      HookWhen
	Mandatory bool
	Exec      []string
}

// hookFromSpec turns a hook declared in package metadata into a runnable
// hook. Names are package-qualified so logs and errors point back at the
// declaring package.
func hookFromSpec(pkg string, spec database.HookSpec) (Hook, error) {
	when := HookWhen(spec.When)
	if when != PreTransaction && when != PostTransaction {
		return Hook{}, fmt.Errorf("package %s hook %s: unknown phase %q", pkg, spec.Name, spec.When)
	}
	name := spec.Name
	if name == "" {
		name = "hook"
	}
	return Hook{
		Name:      pkg + ":" + name,
		When:      when,
		Mandatory: spec.Mandatory,
		Exec:      spec.Exec,
	}, nil
}

// run executes the hook command, capturing its combined output for the
// error report.
func (h Hook) run(ctx context.Context) error {
	if len(h.Exec) == 0 {
		return fmt.Errorf("hook %s has no command", h.Name)
	}

	cmd := exec.CommandContext(ctx, h.Exec[0], h.Exec[1:]...)

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	if err := cmd.Run(); err != nil {
		out := strings.TrimSpace(combined.String())
		if out != "" {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}
	return nil
}
