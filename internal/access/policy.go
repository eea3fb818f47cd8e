package access

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/shopguild/pkg/cerr"
)

// Policy holds role tables loaded from a policy file. A role listed here
// replaces its built-in table entirely; resources it omits are denied.
type Policy struct {
	Roles map[Role]Matrix
}

// policyFile is the on-disk shape:
//
//	roles:
//	  warehouseClerk:
//	    orders: [read, update]
//	    products: [read]
type policyFile struct {
	Roles map[string]map[string][]string `yaml:"roles"`
}

func ParsePolicy(data []byte) (*Policy, error) {
	var raw policyFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "malformed policy", err)
	}

	p := &Policy{Roles: make(map[Role]Matrix, len(raw.Roles))}
	var problems []string
	for roleName, resources := range raw.Roles {
		if roleName == "" {
			problems = append(problems, "role name must not be empty")
			continue
		}
		m := newMatrix()
		for resName, actions := range resources {
			res := Resource(resName)
			if !res.Valid() {
				problems = append(problems, fmt.Sprintf("role %s: unknown resource %q", roleName, resName))
				continue
			}
			for _, actName := range actions {
				act := Action(actName)
				if !act.Valid() {
					problems = append(problems, fmt.Sprintf("role %s: unknown action %q on %s", roleName, actName, resName))
					continue
				}
				m[res].Set(act, true)
			}
		}
		p.Roles[Role(roleName)] = m
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		e := cerr.NewError(cerr.InvalidArgument, "invalid policy", nil)
		for _, msg := range problems {
			e.AddDetailMessage(msg)
		}
		return nil, e
	}
	return p, nil
}

func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}
