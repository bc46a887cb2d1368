package entity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnitStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to string }{
		{UnitStatusAvailable, UnitStatusInUse},
		{UnitStatusAvailable, UnitStatusOnHire},
		{UnitStatusAvailable, UnitStatusMaintenance},
		{UnitStatusAvailable, UnitStatusRetired},
		{UnitStatusInUse, UnitStatusAvailable},
		{UnitStatusInUse, UnitStatusMaintenance},
		{UnitStatusOnHire, UnitStatusAvailable},
		{UnitStatusOnHire, UnitStatusMaintenance},
		{UnitStatusMaintenance, UnitStatusAvailable},
		{UnitStatusMaintenance, UnitStatusRetired},
		{UnitStatusRetired, UnitStatusDisposed},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{UnitStatusAvailable, UnitStatusDisposed},
		{UnitStatusOnHire, UnitStatusInUse},
		{UnitStatusOnHire, UnitStatusRetired},
		{UnitStatusRetired, UnitStatusAvailable},
		{UnitStatusDisposed, UnitStatusAvailable},
		{UnitStatusDisposed, UnitStatusRetired},
		{UnitStatusMaintenance, UnitStatusOnHire},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestValidUnitStatus(t *testing.T) {
	for _, s := range []string{
		UnitStatusAvailable, UnitStatusInUse, UnitStatusOnHire,
		UnitStatusMaintenance, UnitStatusRetired, UnitStatusDisposed,
	} {
		if !ValidUnitStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "AVAILABLE", "lost", "hired"} {
		if ValidUnitStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestLocationQuantityApplyDelta(t *testing.T) {
	q := &LocationQuantity{
		ItemID:     "item-1",
		LocationID: "loc-1",
	}

	// +50 on hand
	if err := q.ApplyDelta(decimal.NewFromInt(50), decimal.Zero); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.QuantityOnHand.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected on_hand 50, got %s", q.QuantityOnHand)
	}
	if !q.QuantityAvailable.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected available 50, got %s", q.QuantityAvailable)
	}

	// allocate 5
	if err := q.ApplyDelta(decimal.Zero, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.QuantityAvailable.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("expected available 45, got %s", q.QuantityAvailable)
	}

	// issuing 46 would leave available negative, must be rejected and state unchanged
	err := q.ApplyDelta(decimal.NewFromInt(-46), decimal.Zero)
	if err == nil {
		t.Fatal("expected negative quantity error")
	}
	if _, ok := err.(*NegativeQuantityError); !ok {
		t.Fatalf("expected NegativeQuantityError, got %T", err)
	}
	if !q.QuantityOnHand.Equal(decimal.NewFromInt(50)) ||
		!q.QuantityAllocated.Equal(decimal.NewFromInt(5)) ||
		!q.QuantityAvailable.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("ledger changed after rejected delta: on_hand=%s allocated=%s available=%s",
			q.QuantityOnHand, q.QuantityAllocated, q.QuantityAvailable)
	}

	// an issue within the available amount succeeds
	if err := q.ApplyDelta(decimal.NewFromInt(-45), decimal.Zero); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.QuantityOnHand.Equal(decimal.NewFromInt(5)) || !q.QuantityAvailable.IsZero() {
		t.Fatalf("expected on_hand 5 available 0, got %s / %s", q.QuantityOnHand, q.QuantityAvailable)
	}
}

func TestApplyDeltaRejectsNegativeOnHand(t *testing.T) {
	q := &LocationQuantity{ItemID: "item-1", LocationID: "loc-1"}
	if err := q.ApplyDelta(decimal.NewFromInt(-1), decimal.Zero); err == nil {
		t.Fatal("expected error for negative on_hand")
	}
	if err := q.ApplyDelta(decimal.Zero, decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected error for negative allocated")
	}
}

func TestTrackingModeValidation(t *testing.T) {
	if !ValidTrackingMode(TrackingModeSerialized) || !ValidTrackingMode(TrackingModeBulk) {
		t.Fatal("expected serialized and bulk to be valid")
	}
	if ValidTrackingMode("batch") || ValidTrackingMode("") {
		t.Fatal("expected unknown modes to be invalid")
	}
}
