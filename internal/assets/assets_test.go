package assets_test

import (
	"context"
	"testing"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/assets"
	"github.com/garnizeh/fixmate/internal/db/dbtest"
	"github.com/garnizeh/fixmate/pkg/models"
)

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo, _ := dbtest.Repo(t)
	svc := assets.New(repo, nil)

	id, err := svc.Create(ctx, assets.Fields{Name: "Chiller 1", Type: "HVAC", Location: "Roof", NextMaintenance: "2024-03-01", MaintenanceIntervalDays: 90})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, assets.Fields{Name: "Lift", Status: "Out of Service"}); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.AssetOperational {
		t.Fatalf("expected default status %q, got %q", models.AssetOperational, got.Status)
	}
	if got.NextMaintenance == nil || *got.NextMaintenance != "2024-03-01" {
		t.Fatalf("unexpected next_maintenance %v", got.NextMaintenance)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != id || list[1].Status != "Out of Service" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCreateValidation(t *testing.T) {
	repo, _ := dbtest.Repo(t)
	svc := assets.New(repo, nil)

	tests := []struct {
		name   string
		fields assets.Fields
	}{
		{"missing name", assets.Fields{Type: "HVAC"}},
		{"blank name", assets.Fields{Name: "   "}},
		{"bad date", assets.Fields{Name: "Pump", NextMaintenance: "03/01/2024"}},
		{"negative interval", assets.Fields{Name: "Pump", MaintenanceIntervalDays: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.fields)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	repo, _ := dbtest.Repo(t)
	svc := assets.New(repo, nil)

	if _, err := svc.Get(context.Background(), 42); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := dbtest.Repo(t)
	svc := assets.New(repo, nil)

	free, err := svc.Create(ctx, assets.Fields{Name: "Spare fan"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	used, err := svc.Create(ctx, assets.Fields{Name: "Boiler"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.CreateRequest(ctx, &models.MaintenanceRequest{
		AssetID: &used,
		Title:   "Leak",
		Status:  models.RequestPending,
		Source:  models.SourceEmployee,
	}); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if err := svc.Delete(ctx, free); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, free); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected deleted asset to be gone, got %v", err)
	}

	if err := svc.Delete(ctx, free); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}

	if err := svc.Delete(ctx, used); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict for referenced asset, got %v", err)
	}
	if _, err := svc.Get(ctx, used); err != nil {
		t.Fatalf("referenced asset should remain: %v", err)
	}
}
