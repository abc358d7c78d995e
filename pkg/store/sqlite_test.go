package store

import (
	"context"
	"path/filepath"
	"testing"

	"swiftgo/pkg/db"
	"swiftgo/pkg/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d)
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	testModels(t, ctx, store)
	testDisabledModels(t, ctx, store)
	testElevation(t, ctx, store)
	testState(t, ctx, store)
}

func testModels(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("Models", func(t *testing.T) {
		models := []*model.Model{
			{Title: "Airbus A320 Neo Lufthansa", ICAOType: "A320", Airline: "DLH", Engines: 2},
			{Title: "Airbus A320 Neo Asobo", ICAOType: "A320", Engines: 2},
			{Title: "Boeing 747-8i", ICAOType: "B748", Engines: 4},
		}
		for _, m := range models {
			if err := store.SaveModel(ctx, m); err != nil {
				t.Fatalf("SaveModel failed: %v", err)
			}
		}

		got, err := store.GetModel(ctx, "Boeing 747-8i")
		if err != nil || got == nil {
			t.Fatalf("GetModel failed: %v %v", got, err)
		}
		if got.Engines != 4 || got.ICAOType != "B748" {
			t.Errorf("GetModel mismatch: %+v", got)
		}
		if missing, err := store.GetModel(ctx, "nope"); err != nil || missing != nil {
			t.Errorf("GetModel(missing) = %v, %v", missing, err)
		}

		// upsert
		models[2].Engines = 3
		if err := store.SaveModel(ctx, models[2]); err != nil {
			t.Fatalf("SaveModel update failed: %v", err)
		}
		got, _ = store.GetModel(ctx, "Boeing 747-8i")
		if got.Engines != 3 {
			t.Errorf("expected updated engines 3, got %d", got.Engines)
		}

		all, err := store.ListModels(ctx)
		if err != nil {
			t.Fatalf("ListModels failed: %v", err)
		}
		if len(all) != 3 || all[0].Title != "Airbus A320 Neo Asobo" {
			t.Errorf("ListModels unexpected: %+v", all)
		}

		a320, err := store.FindModels(ctx, "a320")
		if err != nil {
			t.Fatalf("FindModels failed: %v", err)
		}
		if len(a320) != 2 {
			t.Errorf("expected 2 A320 models, got %d", len(a320))
		}
	})
}

func testDisabledModels(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("DisabledModels", func(t *testing.T) {
		title := "Airbus A320 Neo Lufthansa"
		if err := store.DisableModel(ctx, title, "CREATE_OBJECT_FAILED"); err != nil {
			t.Fatalf("DisableModel failed: %v", err)
		}
		disabled, err := store.IsModelDisabled(ctx, title)
		if err != nil || !disabled {
			t.Errorf("IsModelDisabled = %v, %v", disabled, err)
		}

		a320, _ := store.FindModels(ctx, "A320")
		if len(a320) != 1 || a320[0].Title != "Airbus A320 Neo Asobo" {
			t.Errorf("disabled model still found: %+v", a320)
		}

		list, err := store.ListDisabledModels(ctx)
		if err != nil {
			t.Fatalf("ListDisabledModels failed: %v", err)
		}
		if len(list) != 1 || list[0].Reason != "CREATE_OBJECT_FAILED" {
			t.Errorf("ListDisabledModels unexpected: %+v", list)
		}

		if err := store.EnableModel(ctx, title); err != nil {
			t.Fatalf("EnableModel failed: %v", err)
		}
		if disabled, _ := store.IsModelDisabled(ctx, title); disabled {
			t.Error("model still disabled after EnableModel")
		}
	})
}

func testElevation(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("Elevation", func(t *testing.T) {
		if _, ok := store.GetElevation(ctx, "871fa4c2affffff"); ok {
			t.Error("expected no elevation yet")
		}
		if err := store.SaveElevation(ctx, "871fa4c2affffff", 364); err != nil {
			t.Fatalf("SaveElevation failed: %v", err)
		}
		if err := store.SaveElevation(ctx, "871fa4c2bffffff", 412.5); err != nil {
			t.Fatalf("SaveElevation failed: %v", err)
		}
		ft, ok := store.GetElevation(ctx, "871fa4c2affffff")
		if !ok || ft != 364 {
			t.Errorf("GetElevation = %v, %v", ft, ok)
		}

		recent, err := store.RecentElevations(ctx, 10)
		if err != nil {
			t.Fatalf("RecentElevations failed: %v", err)
		}
		if len(recent) != 2 || recent["871fa4c2bffffff"] != 412.5 {
			t.Errorf("RecentElevations unexpected: %v", recent)
		}
		if one, _ := store.RecentElevations(ctx, 1); len(one) != 1 {
			t.Errorf("limit ignored: %v", one)
		}
	})
}

func testState(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("State", func(t *testing.T) {
		if err := store.SetState(ctx, "last_model_scan", "2024-06-01"); err != nil {
			t.Fatalf("SetState failed: %v", err)
		}
		val, ok := store.GetState(ctx, "last_model_scan")
		if !ok || val != "2024-06-01" {
			t.Errorf("GetState = %q, %v", val, ok)
		}
		if err := store.DeleteState(ctx, "last_model_scan"); err != nil {
			t.Fatalf("DeleteState failed: %v", err)
		}
		if _, ok := store.GetState(ctx, "last_model_scan"); ok {
			t.Error("state still present after delete")
		}
	})
}
