package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mattn/go-isatty"

	"github.com/kazz187/shopguild/internal/access"
	"github.com/kazz187/shopguild/internal/cli"
)

var (
	app     = kingpin.New("shopguild", "Inspect back-office roles and permissions")
	policy  = app.Flag("policy", "Policy file overriding the built-in role tables").Envar("SHOPGUILD_POLICY_FILE").ExistingFile()
	noColor = app.Flag("no-color", "Disable colored output").Bool()

	rolesCmd = app.Command("roles", "Role commands")

	rolesListCmd = rolesCmd.Command("list", "List known roles")

	rolesShowCmd  = rolesCmd.Command("show", "Show the permission matrix of a role")
	rolesShowRole = rolesShowCmd.Arg("role", "Role name").Required().String()

	rolesDiffCmd = rolesCmd.Command("diff", "Diff the permissions of two roles")
	rolesDiffA   = rolesDiffCmd.Arg("from", "Role name").Required().String()
	rolesDiffB   = rolesDiffCmd.Arg("to", "Role name").Required().String()

	menuCmd  = app.Command("menu", "Show the menu a role sees")
	menuRole = menuCmd.Arg("role", "Role name").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	registry := access.NewRegistry()
	if *policy != "" {
		p, err := access.LoadPolicyFile(*policy)
		app.FatalIfError(err, "")
		registry.SetPolicy(p)
	}
	colored := !*noColor && isatty.IsTerminal(os.Stdout.Fd())
	printer := cli.NewPrinter(os.Stdout, colored)

	var err error
	switch command {
	case rolesListCmd.FullCommand():
		for _, role := range registry.Roles() {
			fmt.Println(role)
		}
	case rolesShowCmd.FullCommand():
		role := access.Role(*rolesShowRole)
		warnUnknown(registry, role)
		err = printer.Matrix(role, registry.Subject(role, nil))
	case rolesDiffCmd.FullCommand():
		a, b := access.Role(*rolesDiffA), access.Role(*rolesDiffB)
		warnUnknown(registry, a)
		warnUnknown(registry, b)
		err = printer.Diff(a, registry.Subject(a, nil), b, registry.Subject(b, nil))
	case menuCmd.FullCommand():
		role := access.Role(*menuRole)
		warnUnknown(registry, role)
		err = printer.Menu(registry.Subject(role, nil))
	}
	app.FatalIfError(err, "")
}

func warnUnknown(registry *access.Registry, role access.Role) {
	if !registry.Knows(role) {
		fmt.Fprintf(os.Stderr, "warning: %q is not a known role; showing the default read-only table\n", role)
	}
}
