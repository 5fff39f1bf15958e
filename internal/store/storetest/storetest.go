// Package storetest is a conformance suite for store.Repository drivers.
package storetest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/records/internal/record"
	"github.com/JonMunkholm/records/internal/store"
)

// Factory returns an empty repository. The suite closes it.
type Factory func(t *testing.T) store.Repository

// Run exercises the Repository contract against repositories from newRepo.
func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo store.Repository)
	}{
		{"SaveAssignsID", testSaveAssignsID},
		{"SaveKeepsAttributeOrder", testSaveKeepsAttributeOrder},
		{"SaveWithIDUpserts", testSaveWithIDUpserts},
		{"SaveWithIDReplacesAttributes", testSaveWithIDReplacesAttributes},
		{"SaveAllMixed", testSaveAllMixed},
		{"SaveAllIsAtomic", testSaveAllIsAtomic},
		{"SaveAllRepeatedIDLastWins", testSaveAllRepeatedIDLastWins},
		{"FindAllOrderedByID", testFindAllOrderedByID},
		{"FindByIDNotFound", testFindByIDNotFound},
		{"DeleteByID", testDeleteByID},
		{"CountAndPing", testCountAndPing},
		{"NewIDsAfterExplicitIDs", testNewIDsAfterExplicitIDs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(t)
			t.Cleanup(func() { _ = repo.Close() })
			tt.fn(t, repo)
		})
	}
}

func widget() record.Record {
	return record.Record{
		Name:        "Widget",
		Description: "A small widget",
		Attributes: []record.CustomAttribute{
			{Name: "Colour", Value: "red", Type: record.TypeDropdown, Options: "red,green", Required: true},
			{Name: "Weight", Value: "1.5", Type: record.TypeNumber},
			{Name: "SKU", Value: "W-1", ValidationPattern: `^W-\d+$`, ValidationMessage: "bad sku"},
		},
	}
}

func testSaveAssignsID(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	saved, err := repo.Save(ctx, widget())
	require.NoError(t, err)
	require.NotNil(t, saved.ID)

	got, err := repo.FindByID(ctx, *saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "A small widget", got.Description)
	require.Len(t, got.Attributes, 3)

	colour := got.Attributes[0]
	assert.Equal(t, "Colour", colour.Name)
	assert.Equal(t, record.TypeDropdown, colour.Type)
	assert.Equal(t, "red,green", colour.Options)
	assert.True(t, colour.Required)

	sku := got.Attributes[2]
	assert.Equal(t, `^W-\d+$`, sku.ValidationPattern)
	assert.Equal(t, "bad sku", sku.ValidationMessage)
	assert.Equal(t, record.TypeText, sku.Type)
}

func testSaveKeepsAttributeOrder(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	rec := record.Record{Name: "ordered"}
	for _, n := range []string{"Zeta", "Alpha", "Mu", "Alpha"} {
		rec.Attributes = append(rec.Attributes, record.Text(n, strings.ToLower(n)))
	}

	saved, err := repo.Save(ctx, rec)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, *saved.ID)
	require.NoError(t, err)

	var names []string
	for _, a := range got.Attributes {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mu", "Alpha"}, names)
}

func testSaveWithIDUpserts(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	rec := record.Record{ID: record.IDPtr(42), Name: "explicit"}
	saved, err := repo.Save(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, saved.ID)
	assert.EqualValues(t, 42, *saved.ID)

	rec.Name = "renamed"
	_, err = repo.Save(ctx, rec)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testSaveWithIDReplacesAttributes(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	saved, err := repo.Save(ctx, widget())
	require.NoError(t, err)

	saved.Attributes = []record.CustomAttribute{record.Text("Only", "one")}
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, *saved.ID)
	require.NoError(t, err)
	require.Len(t, got.Attributes, 1)
	assert.Equal(t, "Only", got.Attributes[0].Name)
}

func testSaveAllMixed(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	batch := []record.Record{
		widget(),
		{ID: record.IDPtr(7), Name: "seven"},
		{Name: "plain"},
	}
	saved, err := repo.SaveAll(ctx, batch)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	for _, r := range saved {
		require.NotNil(t, r.ID)
	}
	assert.EqualValues(t, 7, *saved[1].ID)
	assert.Nil(t, batch[0].ID, "SaveAll must not modify its input")

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testSaveAllIsAtomic(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	batch := []record.Record{
		{Name: "fine"},
		{Name: strings.Repeat("x", record.MaxNameLength+1)},
	}
	_, err := repo.SaveAll(ctx, batch)
	require.Error(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "a failed batch must not leave partial rows")
}

func testSaveAllRepeatedIDLastWins(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	saved, err := repo.SaveAll(ctx, []record.Record{
		{ID: record.IDPtr(5), Name: "first", Attributes: []record.CustomAttribute{
			record.Text("A", "1"), record.Text("B", "2"),
		}},
		{ID: record.IDPtr(5), Name: "second", Attributes: []record.CustomAttribute{
			record.Text("C", "3"),
		}},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.FindByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)
	require.Len(t, got.Attributes, 1)
	assert.Equal(t, "C", got.Attributes[0].Name)
	assert.Equal(t, "3", got.Attributes[0].Value)
}

func testFindAllOrderedByID(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	_, err := repo.SaveAll(ctx, []record.Record{
		{ID: record.IDPtr(30), Name: "thirty", Attributes: []record.CustomAttribute{record.Text("A", "30")}},
		{ID: record.IDPtr(10), Name: "ten"},
		{ID: record.IDPtr(20), Name: "twenty", Attributes: []record.CustomAttribute{record.Text("B", "20"), record.Text("A", "20")}},
	})
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.EqualValues(t, 10, *all[0].ID)
	assert.EqualValues(t, 20, *all[1].ID)
	assert.EqualValues(t, 30, *all[2].ID)

	assert.Empty(t, all[0].Attributes)
	require.Len(t, all[1].Attributes, 2)
	assert.Equal(t, "B", all[1].Attributes[0].Name)
	assert.Equal(t, "30", all[2].Attributes[0].Value)
}

func testFindByIDNotFound(t *testing.T, repo store.Repository) {
	_, err := repo.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteByID(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	saved, err := repo.Save(ctx, widget())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, *saved.ID))

	_, err = repo.FindByID(ctx, *saved.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteByID(ctx, *saved.ID), store.ErrNotFound)

	// Re-creating under the same ID must not see the old attributes.
	_, err = repo.Save(ctx, record.Record{ID: saved.ID, Name: "again"})
	require.NoError(t, err)
	got, err := repo.FindByID(ctx, *saved.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Attributes)
}

func testCountAndPing(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = repo.SaveAll(ctx, []record.Record{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func testNewIDsAfterExplicitIDs(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	_, err := repo.Save(ctx, record.Record{ID: record.IDPtr(100), Name: "explicit"})
	require.NoError(t, err)

	saved, err := repo.Save(ctx, record.Record{Name: "generated"})
	require.NoError(t, err)
	require.NotNil(t, saved.ID)
	assert.Greater(t, *saved.ID, int64(100))
}
