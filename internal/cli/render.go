// Package cli renders permission tables for the shopguild command.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/kazz187/shopguild/internal/access"
)

type Printer struct {
	w     io.Writer
	color bool
}

func NewPrinter(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, color: colored}
}

func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Matrix prints one row per resource and one column per action.
func (p *Printer) Matrix(role access.Role, user *access.User) error {
	header := p.paint(color.Bold)
	granted := p.paint(color.FgGreen)
	denied := p.paint(color.FgHiBlack)

	if _, err := header.Fprintf(p.w, "role: %s\n", role); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	cols := []string{"resource"}
	for _, a := range access.AllActions() {
		cols = append(cols, string(a))
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, res := range access.AllResources() {
		cells := []string{string(res)}
		for _, act := range access.AllActions() {
			if access.HasPermission(user, res, act) {
				cells = append(cells, granted.Sprint("yes"))
			} else {
				cells = append(cells, denied.Sprint("no"))
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Menu prints the menu items the user sees, in display order.
func (p *Printer) Menu(user *access.User) error {
	visible := p.paint(color.FgGreen)
	hidden := p.paint(color.FgHiBlack)
	for _, item := range access.MenuItems() {
		var err error
		if access.IsMenuItemVisible(user, item) {
			_, err = visible.Fprintf(p.w, "+ %s\n", item)
		} else {
			_, err = hidden.Fprintf(p.w, "- %s\n", item)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Diff prints a unified diff between two roles' effective grants. Nothing
// is printed when they are equal.
func (p *Printer) Diff(roleA access.Role, a *access.User, roleB access.Role, b *access.User) error {
	if access.EffectivePermissions(a).Equal(access.EffectivePermissions(b)) {
		return nil
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(grantLines(a)),
		B:        difflib.SplitLines(grantLines(b)),
		FromFile: string(roleA),
		ToFile:   string(roleB),
		Context:  1,
	})
	if err != nil {
		return fmt.Errorf("failed to diff roles: %w", err)
	}
	added := p.paint(color.FgGreen)
	removed := p.paint(color.FgRed)
	for _, line := range difflib.SplitLines(text) {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, err = fmt.Fprint(p.w, line)
		case strings.HasPrefix(line, "+"):
			_, err = added.Fprint(p.w, line)
		case strings.HasPrefix(line, "-"):
			_, err = removed.Fprint(p.w, line)
		default:
			_, err = fmt.Fprint(p.w, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// grantLines renders one "resource: actions" line per resource.
func grantLines(user *access.User) string {
	m := access.EffectivePermissions(user)
	var b strings.Builder
	for _, res := range access.AllResources() {
		var acts []string
		for _, act := range m.Granted(res) {
			acts = append(acts, string(act))
		}
		if len(acts) == 0 {
			acts = []string{"-"}
		}
		fmt.Fprintf(&b, "%s: %s\n", res, strings.Join(acts, " "))
	}
	return b.String()
}
