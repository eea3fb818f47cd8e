package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/shopguild/internal/access"
)

func subject(role access.Role) *access.User {
	return access.NewRegistry().Subject(role, nil)
}

func TestPrinter_Matrix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Matrix(access.RoleOrderManager, subject(access.RoleOrderManager)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "role: orderManager", lines[0])
	assert.Equal(t, []string{"resource", "create", "read", "update", "delete"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"products", "no", "yes", "no", "no"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"orders", "yes", "yes", "yes", "yes"}, strings.Fields(lines[5]))
	assert.Equal(t, []string{"admins", "no", "no", "no", "no"}, strings.Fields(lines[7]))
}

func TestPrinter_MatrixColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, true).Matrix(access.RoleSuperAdmin, subject(access.RoleSuperAdmin)))
	assert.Contains(t, buf.String(), "\x1b[32myes\x1b[0m")
}

func TestPrinter_Menu(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Menu(subject(access.RoleOrderManager)))
	assert.Equal(t, strings.Join([]string{
		"+ dashboard",
		"+ products",
		"- categories",
		"- subcategories",
		"- companies",
		"+ orders",
		"- promotions",
		"- admin-users",
		"+ statistics",
		"+ profile",
	}, "\n")+"\n", buf.String())
}

func TestPrinter_Diff(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	require.NoError(t, p.Diff(access.RoleProductManager, subject(access.RoleProductManager), access.RoleContentEditor, subject(access.RoleContentEditor)))

	out := buf.String()
	assert.Contains(t, out, "--- productManager\n")
	assert.Contains(t, out, "+++ contentEditor\n")
	assert.Contains(t, out, "-products: create read update delete\n")
	assert.Contains(t, out, "+products: read update\n")
	assert.Contains(t, out, "+categories: create read update\n")

	buf.Reset()
	require.NoError(t, p.Diff("a", subject("guest"), "b", subject("visitor")))
	assert.Empty(t, buf.String())
}
