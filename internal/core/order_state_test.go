package core_test

import (
	"errors"
	"testing"

	"shiv-erp/internal/core"
)

func TestNextOrderStatus(t *testing.T) {
	type move struct {
		from   core.OrderStatus
		action core.OrderAction
	}
	allowed := map[core.OrderKind]map[move]core.OrderStatus{
		core.PurchaseOrderKind: {
			{core.OrderDraft, core.ActionConfirm}:    core.OrderConfirmed,
			{core.OrderDraft, core.ActionCancel}:     core.OrderCancelled,
			{core.OrderConfirmed, core.ActionBill}:   core.OrderBilled,
			{core.OrderConfirmed, core.ActionCancel}: core.OrderCancelled,
			{core.OrderConfirmed, core.ActionRevert}: core.OrderDraft,
			{core.OrderCancelled, core.ActionRevert}: core.OrderDraft,
		},
		core.SalesOrderKind: {
			{core.OrderDraft, core.ActionConfirm}:  core.OrderConfirmed,
			{core.OrderDraft, core.ActionCancel}:   core.OrderCancelled,
			{core.OrderConfirmed, core.ActionBill}: core.OrderBilled,
		},
	}

	// Every (kind, state, action) triple is either in the table or rejected.
	for kind, table := range allowed {
		for _, from := range core.OrderStatuses {
			for _, action := range core.OrderActions {
				want, ok := table[move{from, action}]
				got, err := core.NextOrderStatus(kind, from, action)
				if ok {
					if err != nil {
						t.Errorf("%s: %s --%s--> expected %s, got error %v", kind, from, action, want, err)
					} else if got != want {
						t.Errorf("%s: %s --%s--> expected %s, got %s", kind, from, action, want, got)
					}
					continue
				}
				if !errors.Is(err, core.ErrInvalidState) {
					t.Errorf("%s: %s --%s--> expected ErrInvalidState, got %q, %v", kind, from, action, got, err)
				}
			}
		}
	}
}

func TestNextOrderStatus_BilledIsTerminal(t *testing.T) {
	for _, kind := range []core.OrderKind{core.PurchaseOrderKind, core.SalesOrderKind} {
		for _, action := range core.OrderActions {
			if _, err := core.NextOrderStatus(kind, core.OrderBilled, action); err == nil {
				t.Errorf("%s: billed order accepted %s", kind, action)
			}
		}
	}
}

func TestNextBillingStatus(t *testing.T) {
	statuses := []core.BillingStatus{core.BillingDraft, core.BillingConfirmed, core.BillingCancelled}
	allowed := map[core.BillingStatus]map[core.OrderAction]core.BillingStatus{
		core.BillingDraft:     {core.ActionConfirm: core.BillingConfirmed, core.ActionCancel: core.BillingCancelled},
		core.BillingConfirmed: {core.ActionCancel: core.BillingCancelled},
	}

	for _, kind := range []core.BillingKind{core.VendorBillKind, core.CustomerInvoiceKind} {
		for _, from := range statuses {
			for _, action := range core.OrderActions {
				want, ok := allowed[from][action]
				got, err := core.NextBillingStatus(kind, from, action)
				if ok && (err != nil || got != want) {
					t.Errorf("%s: %s --%s--> expected %s, got %s (%v)", kind, from, action, want, got, err)
				}
				if !ok && !errors.Is(err, core.ErrInvalidState) {
					t.Errorf("%s: %s --%s--> expected ErrInvalidState, got %v", kind, from, action, err)
				}
			}
		}
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range core.OrderStatuses {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if core.OrderStatus("shipped").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestNextOrderStatus_RevertNeedsConfirmedOrCancelled(t *testing.T) {
	_, err := core.NextOrderStatus(core.PurchaseOrderKind, core.OrderDraft, core.ActionRevert)
	if !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("revert of a draft purchase order: expected ErrInvalidState, got %v", err)
	}
	for _, from := range []core.OrderStatus{core.OrderConfirmed, core.OrderCancelled} {
		got, err := core.NextOrderStatus(core.PurchaseOrderKind, from, core.ActionRevert)
		if err != nil || got != core.OrderDraft {
			t.Errorf("revert from %s: got %q, %v", from, got, err)
		}
	}
}
