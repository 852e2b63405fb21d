package permission

import (
	"testing"

	"backoffice/internal/model"
	"backoffice/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListKeys(t *testing.T) {
	keys := ListKeys(DefaultTree)

	assert.Contains(t, keys, "primary.invoices.read")
	assert.Contains(t, keys, "primary.invoices.sample-invoices.write")
	assert.Contains(t, keys, "primary.invoices.sales-invoices.delete")
	assert.Contains(t, keys, "primary.invoices.invoices-reports.read")
	assert.Contains(t, keys, "secondary.customers.write")
	assert.Contains(t, keys, "settings.profile.write")
	assert.NotContains(t, keys, "primary.invoices.invoices-reports.write")
	assert.NotContains(t, keys, "settings.profile.delete")

	assert.IsNonDecreasing(t, keys)
	// 4 crud modules in primary + 3 children (2 crud + 1 read) + 4 crud in secondary + profile(2)
	assert.Len(t, keys, 4*3+2*3+1+4*3+2)
}

func TestListKeys_NestedChildren(t *testing.T) {
	tree := NewTree(Group{Key: "g", Modules: []Module{
		{Key: "a", Actions: []string{"read"}, Children: []Module{
			{Key: "b", Actions: []string{"write"}, Children: []Module{
				{Key: "c", Actions: []string{"read"}},
			}},
		}},
	}})

	assert.Equal(t, []string{"g.a.b.c.read", "g.a.b.write", "g.a.read"}, ListKeys(tree))
	assert.True(t, tree.Contains("g.a.b.c.read"))
	assert.False(t, tree.Contains("g.a.c.read"))
}

func TestAuthorize(t *testing.T) {
	t.Run("super admin is authorized with an empty map", func(t *testing.T) {
		u := &model.User{Level: model.LevelSuperAdmin}
		for _, key := range []string{CustomersWrite, "anything.at.all", ""} {
			assert.True(t, Authorize(u, key))
		}
	})

	t.Run("other levels read the map and default to false", func(t *testing.T) {
		for _, level := range []string{model.LevelUser, model.LevelAdmin} {
			u := &model.User{Level: level, Permissions: map[string]bool{
				CustomersWrite: true,
				CustomersRead:  false,
			}}
			assert.True(t, Authorize(u, CustomersWrite))
			assert.False(t, Authorize(u, CustomersRead))
			assert.False(t, Authorize(u, CustomersDelete))
		}
	})

	t.Run("nil user and nil map are denied", func(t *testing.T) {
		assert.False(t, Authorize(nil, CustomersRead))
		assert.False(t, Authorize(&model.User{Level: model.LevelUser}, CustomersRead))
	})
}

func TestAuthorizeRole(t *testing.T) {
	tests := []struct {
		level string
		role  string
		want  bool
	}{
		{model.LevelAdmin, "Admin", true},
		{model.LevelSuperAdmin, "Admin", true},
		{model.LevelUser, "Admin", false},
		{model.LevelSuperAdmin, "Super Admin", true},
		{model.LevelAdmin, "Super Admin", false},
		{model.LevelUser, "User", true},
		{model.LevelAdmin, "User", true},
		{model.LevelAdmin, "Manager", false},
		{"Guest", "User", false},
	}

	for _, tt := range tests {
		t.Run(tt.level+" as "+tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorizeRole(&model.User{Level: tt.level}, tt.role))
		})
	}
}

func TestCheck(t *testing.T) {
	admin := &model.User{Level: model.LevelAdmin, Permissions: map[string]bool{BanksRead: true}}
	user := &model.User{Level: model.LevelUser, Permissions: map[string]bool{BanksRead: true}}
	super := &model.User{Level: model.LevelSuperAdmin}

	t.Run("both declared constraints must pass", func(t *testing.T) {
		rule := Rule{Role: "Admin", Capability: BanksRead}
		assert.NoError(t, Check(admin, rule))

		err := Check(user, rule)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))

		err = Check(admin, Rule{Role: "Admin", Capability: BanksWrite})
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("only the declared constraint is checked", func(t *testing.T) {
		assert.NoError(t, Check(user, Rule{Capability: BanksRead}))
		assert.NoError(t, Check(admin, Rule{Role: "Admin"}))
		assert.NoError(t, Check(user, Rule{}))
	})

	t.Run("super admin short-circuits", func(t *testing.T) {
		assert.NoError(t, Check(super, Rule{Role: "Super Admin", Capability: "x.y.z"}))
	})

	t.Run("missing user is forbidden", func(t *testing.T) {
		assert.True(t, apperror.Is(Check(nil, Rule{}), apperror.KindForbidden))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("accepts declared keys", func(t *testing.T) {
		in := map[string]bool{CustomersWrite: true, InvoiceKey("sample", "read"): false}
		out, err := Normalize(DefaultTree, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := Normalize(DefaultTree, map[string]bool{
			CustomersWrite:                       true,
			"secondary.factory-categories.write": true,
			"primary.invoices.hack":              true,
		})
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		fields := apperror.FieldsOf(err)
		assert.Len(t, fields, 2)
		assert.Contains(t, fields, "permissions.secondary.factory-categories.write")
	})

	t.Run("empty map clears permissions", func(t *testing.T) {
		out, err := Normalize(DefaultTree, nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestInvoiceKey(t *testing.T) {
	assert.Equal(t, "primary.invoices.sample-invoices.write", InvoiceKey(model.InvoiceKindSample, ActionWrite))
	assert.True(t, DefaultTree.Contains(InvoiceKey(model.InvoiceKindSales, ActionDelete)))
}
