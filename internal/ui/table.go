package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"napm/pkg/database"
	"napm/pkg/resolver"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a new table writing to stdout.
func NewTable(header []string) *Table {
	return NewTableWriter(os.Stdout, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	t := &Table{writer: tw, headers: header}
	if len(header) > 0 {
		headerRow := make([]string, len(header))
		for i, h := range header {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(headerRow, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render outputs the table.
func (t *Table) Render() {
	t.writer.Flush()
}

// PrintPackages prints a list of package records in a formatted table.
func PrintPackages(records []*database.PackageRecord) {
	if len(records) == 0 {
		MutedMsg("no packages")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range records {
		name := PackageName.Sprint(r.Name)
		if r.Reason == database.ReasonDependency {
			name += " " + AsDependency.Sprint("(dependency)")
		}
		repo := ""
		if r.Repository != "" {
			repo = PackageRepo.Sprint("[" + r.Repository + "]")
		}

		desc := r.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, PackageVersion.Sprint(r.Version), repo, desc)
	}
	w.Flush()
}

// PrintSearchResults prints repository search hits, marking the ones that
// are already installed locally.
func PrintSearchResults(records []*database.PackageRecord, installed map[string]bool) {
	if len(records) == 0 {
		MutedMsg("no packages")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range records {
		name := PackageName.Sprint(r.Name)
		if installed[r.Name] {
			name += " " + Explicit.Sprint("[installed]")
		}
		repo := ""
		if r.Repository != "" {
			repo = PackageRepo.Sprint("[" + r.Repository + "]")
		}

		desc := r.Description
		if len(desc) > 60 {
			desc = desc[:57] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, PackageVersion.Sprint(r.Version), repo, desc)
	}
	w.Flush()
}

// PrintPackageInfo prints detailed package information.
func PrintPackageInfo(r *database.PackageRecord) {
	HeaderMsg("Package Information")

	printField("Name", r.Name)
	printField("Version", r.Version)
	if r.Architecture != "" {
		printField("Architecture", r.Architecture)
	}
	if r.Repository != "" {
		printField("Repository", r.Repository)
	}
	if r.Description != "" {
		printField("Description", r.Description)
	}
	if len(r.Depends) > 0 {
		printField("Depends", joinDepends(r.Depends))
	}
	if len(r.OptDepends) > 0 {
		printField("Optional", joinDepends(r.OptDepends))
	}
	if len(r.Provides) > 0 {
		provides := make([]string, len(r.Provides))
		for i, p := range r.Provides {
			if p.Version != "" {
				provides[i] = p.Name + "=" + p.Version
			} else {
				provides[i] = p.Name
			}
		}
		printField("Provides", strings.Join(provides, ", "))
	}
	if len(r.Conflicts) > 0 {
		printField("Conflicts", strings.Join(r.Conflicts, ", "))
	}
	if len(r.Replaces) > 0 {
		printField("Replaces", strings.Join(r.Replaces, ", "))
	}
	printField("Installed Size", FormatSize(r.InstalledSize))
	printField("Files", fmt.Sprintf("%d", len(r.Files)))
	switch r.Reason {
	case database.ReasonExplicit:
		printField("Install Reason", "explicitly installed")
	case database.ReasonDependency:
		printField("Install Reason", "installed as a dependency")
	}
}

func joinDepends(deps []database.Depend) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

func printField(label, value string) {
	fmt.Printf("  %s: %s\n", Cyan(label), value)
}

// PrintPlan summarizes what a resolution will do before the user confirms.
func PrintPlan(res *resolver.Resolution, spaceDelta int64) {
	var installs, upgrades, replaces, removes []string

	for _, step := range res.Steps {
		switch step.Kind {
		case resolver.StepInstall:
			if step.Old != nil {
				upgrades = append(upgrades, fmt.Sprintf("%s %s → %s", step.New.Name, step.Old.Version, step.New.Version))
			} else {
				installs = append(installs, step.New.Name+" "+step.New.Version)
			}
		case resolver.StepReplace:
			replaces = append(replaces, fmt.Sprintf("%s → %s %s", step.Old.Name, step.New.Name, step.New.Version))
		case resolver.StepRemove:
			removes = append(removes, step.Old.Name+" "+step.Old.Version)
		}
	}

	printPlanSection("Installing", Green, installs)
	printPlanSection("Upgrading", Cyan, upgrades)
	printPlanSection("Replacing", Cyan, replaces)
	printPlanSection("Removing", Red, removes)

	if len(res.AlsoRemove) > 0 {
		names := make([]string, len(res.AlsoRemove))
		for i, r := range res.AlsoRemove {
			names[i] = r.Name
		}
		MutedMsg("No longer needed: %s", strings.Join(names, ", "))
	}

	switch {
	case spaceDelta > 0:
		InfoMsg("Net disk usage: +%s", FormatSize(spaceDelta))
	case spaceDelta < 0:
		InfoMsg("Net disk usage: -%s", FormatSize(-spaceDelta))
	}
}

func printPlanSection(title string, paint func(string) string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", Bold(title), len(items))
	for _, item := range items {
		fmt.Printf("  %s\n", paint(item))
	}
}

// FormatSize renders a byte count in a human-readable unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
