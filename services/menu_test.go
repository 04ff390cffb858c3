package services

import (
	"testing"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicMenuShowsOnlyActiveChain(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleOwner)
	r := f.register(owner, "Chai Point")
	f.approve(f.user(models.RoleAdmin), r.ID)

	beverages, err := f.menu.CreateCategory(f.ctx, owner, r.ID, MenuNodeInput{Name: "Beverages"})
	require.NoError(t, err)
	cold, err := f.menu.CreateSubCategory(f.ctx, owner, beverages.ID, MenuNodeInput{Name: "Cold", Status: models.MenuInactive})
	require.NoError(t, err)
	hot, err := f.menu.CreateSubCategory(f.ctx, owner, beverages.ID, MenuNodeInput{Name: "Hot"})
	require.NoError(t, err)
	_, err = f.menu.CreateItem(f.ctx, owner, cold.ID, ItemInput{MenuNodeInput: MenuNodeInput{Name: "Iced Tea"}, Price: 90})
	require.NoError(t, err)
	_, err = f.menu.CreateItem(f.ctx, owner, hot.ID, ItemInput{MenuNodeInput: MenuNodeInput{Name: "Masala Chai"}, Price: 40})
	require.NoError(t, err)
	_, err = f.menu.CreateItem(f.ctx, owner, hot.ID, ItemInput{MenuNodeInput: MenuNodeInput{Name: "Filter Coffee", Status: models.MenuInactive}, Price: 50})
	require.NoError(t, err)
	hidden, err := f.menu.CreateCategory(f.ctx, owner, r.ID, MenuNodeInput{Name: "Seasonal", Status: models.MenuInactive})
	require.NoError(t, err)

	menu, err := f.menu.PublicMenu(f.ctx, r.ID)
	require.NoError(t, err)

	var names []string
	for _, c := range menu {
		assert.NotEqual(t, hidden.ID, c.ID)
		for _, s := range c.SubCategories {
			assert.NotEqual(t, "Cold", s.Name)
			for _, i := range s.Items {
				names = append(names, i.Name)
			}
		}
	}
	assert.Contains(t, names, "Masala Chai")
	assert.NotContains(t, names, "Iced Tea")
	assert.NotContains(t, names, "Filter Coffee")

	all, err := f.menu.ListCategories(f.ctx, owner, r.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2, "owners see inactive categories too")
}

func TestPublicMenuRequiresListedRestaurant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleOwner)
	r := f.register(owner, "Pending Place")
	f.menuItem(owner, r.ID, models.MenuActive, models.MenuActive, models.MenuActive)

	_, err := f.menu.PublicMenu(f.ctx, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMenuReferencesMustExist(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleOwner)

	_, err := f.menu.CreateCategory(f.ctx, owner, 404, MenuNodeInput{Name: "Ghost"})
	assert.True(t, apperr.Is(err, apperr.KindReference))
	_, err = f.menu.CreateSubCategory(f.ctx, owner, 404, MenuNodeInput{Name: "Ghost"})
	assert.True(t, apperr.Is(err, apperr.KindReference))
	_, err = f.menu.CreateItem(f.ctx, owner, 404, ItemInput{MenuNodeInput: MenuNodeInput{Name: "Ghost"}})
	assert.True(t, apperr.Is(err, apperr.KindReference))
}

func TestMenuValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleOwner)
	r := f.register(owner, "R")
	item := f.menuItem(owner, r.ID, models.MenuActive, models.MenuActive, models.MenuActive)

	_, err := f.menu.CreateCategory(f.ctx, owner, r.ID, MenuNodeInput{Name: "X", Status: "ACTIVE"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.menu.CreateItem(f.ctx, owner, item.SubCategoryID, ItemInput{MenuNodeInput: MenuNodeInput{Name: "Free"}, Price: -1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.menu.UpdateItem(f.ctx, owner, item.ID, MenuNodeUpdate{Price: ptr(-5.0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.menu.UpdateSubCategory(f.ctx, owner, item.SubCategoryID, MenuNodeUpdate{Price: ptr(5.0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestMenuRenameTrimsName(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleOwner)
	r := f.register(owner, "R")
	item := f.menuItem(owner, r.ID, models.MenuActive, models.MenuActive, models.MenuActive)
	chain, err := resolveItem(f.db, item.ID)
	require.NoError(t, err)

	rename := map[string]func(MenuNodeUpdate) (string, error){
		"category": func(in MenuNodeUpdate) (string, error) {
			c, err := f.menu.UpdateCategory(f.ctx, owner, chain.Category.ID, in)
			if err != nil {
				return "", err
			}
			return c.Name, nil
		},
		"sub-category": func(in MenuNodeUpdate) (string, error) {
			sc, err := f.menu.UpdateSubCategory(f.ctx, owner, item.SubCategoryID, in)
			if err != nil {
				return "", err
			}
			return sc.Name, nil
		},
		"item": func(in MenuNodeUpdate) (string, error) {
			i, err := f.menu.UpdateItem(f.ctx, owner, item.ID, in)
			if err != nil {
				return "", err
			}
			return i.Name, nil
		},
	}
	for node, update := range rename {
		t.Run(node, func(t *testing.T) {
			_, err := update(MenuNodeUpdate{Name: ptr("   ")})
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, "name", appErr.Field)

			name, err := update(MenuNodeUpdate{Name: ptr("  Specials  ")})
			require.NoError(t, err)
			assert.Equal(t, "Specials", name)
		})
	}
}

func TestUpdateAndDeleteItem(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleOwner)
	stranger := f.user(models.RoleOwner)
	r := f.register(owner, "R")
	item := f.menuItem(owner, r.ID, models.MenuActive, models.MenuActive, models.MenuActive)

	updated, err := f.menu.UpdateItem(f.ctx, owner, item.ID, MenuNodeUpdate{Price: ptr(150.0), Status: ptr(models.MenuInactive)})
	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Price)
	assert.Equal(t, models.MenuInactive, updated.Status)

	_, err = f.menu.UpdateItem(f.ctx, stranger, item.ID, MenuNodeUpdate{Price: ptr(1.0)})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, f.menu.DeleteItem(f.ctx, owner, item.ID))
	_, err = f.menu.UpdateItem(f.ctx, owner, item.ID, MenuNodeUpdate{Price: ptr(1.0)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCategoryStatusHidesWholeBranch(t *testing.T) {
	f := newFixture(t)
	owner, _, r, item := f.openListedRestaurant()

	chain, err := resolveItem(f.db, item.ID)
	require.NoError(t, err)
	assert.True(t, chain.Visible())

	_, err = f.menu.UpdateCategory(f.ctx, owner, chain.Category.ID, MenuNodeUpdate{Status: ptr(models.MenuInactive)})
	require.NoError(t, err)

	chain, err = resolveItem(f.db, item.ID)
	require.NoError(t, err)
	assert.False(t, chain.Visible())

	menu, err := f.menu.PublicMenu(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, menu)
}
