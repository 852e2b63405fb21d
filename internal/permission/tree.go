package permission

import (
	"sort"
	"strings"
)

// Actions
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// Module is one node of the module tree. Children nest their keys under the
// parent: "{group}.{parent}.{child}.{action}".
type Module struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Icon     string   `json:"icon,omitempty"`
	Actions  []string `json:"actions"`
	Children []Module `json:"children,omitempty"`
}

// Group is a top-level section of the tree
type Group struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Modules []Module `json:"modules"`
}

// Tree is the authoritative vocabulary of capability keys
type Tree struct {
	Groups []Group `json:"groups"`
	keys   map[string]struct{}
}

var crud = []string{ActionRead, ActionWrite, ActionDelete}

// DefaultTree is the module tree shipped with the application
var DefaultTree = NewTree(
	Group{Key: "primary", Title: "Primary", Modules: []Module{
		{Key: "invoices", Title: "Invoices", Icon: "file-text", Actions: crud, Children: []Module{
			{Key: "sales-invoices", Title: "Sales Invoices", Icon: "file-dollar", Actions: crud},
			{Key: "sample-invoices", Title: "Sample Invoices", Icon: "file-box", Actions: crud},
			{Key: "invoices-reports", Title: "Invoices Reports", Icon: "chart-bar", Actions: []string{ActionRead}},
		}},
		{Key: "lc-manage", Title: "LC Manage", Icon: "landmark", Actions: crud},
		{Key: "inspection-doc", Title: "Inspection Doc", Icon: "clipboard-check", Actions: crud},
		{Key: "commertial-doc", Title: "Commertial Doc", Icon: "files", Actions: crud},
	}},
	Group{Key: "secondary", Title: "Secondary", Modules: []Module{
		{Key: "customers", Title: "Customers", Icon: "users", Actions: crud},
		{Key: "factories", Title: "Factories", Icon: "factory", Actions: crud},
		{Key: "banks", Title: "Banks", Icon: "building-bank", Actions: crud},
		{Key: "shippers", Title: "Shippers", Icon: "truck", Actions: crud},
	}},
	Group{Key: "settings", Title: "Settings", Modules: []Module{
		{Key: "profile", Title: "Profile", Icon: "user-cog", Actions: []string{ActionRead, ActionWrite}},
	}},
)

// NewTree builds a tree and indexes its keys
func NewTree(groups ...Group) *Tree {
	t := &Tree{Groups: groups, keys: make(map[string]struct{})}
	for _, k := range ListKeys(t) {
		t.keys[k] = struct{}{}
	}
	return t
}

// ListKeys walks every group, module, child and action of the tree and
// returns the sorted set of capability keys.
func ListKeys(t *Tree) []string {
	seen := make(map[string]struct{})
	for _, g := range t.Groups {
		for _, m := range g.Modules {
			collect(seen, g.Key, m)
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collect(seen map[string]struct{}, prefix string, m Module) {
	base := prefix + "." + m.Key
	for _, a := range m.Actions {
		seen[base+"."+a] = struct{}{}
	}
	for _, child := range m.Children {
		collect(seen, base, child)
	}
}

// Contains reports whether key is declared by the tree
func (t *Tree) Contains(key string) bool {
	_, ok := t.keys[key]
	return ok
}

// Key joins key segments: Key("secondary", "customers", "write")
func Key(parts ...string) string {
	return strings.Join(parts, ".")
}
