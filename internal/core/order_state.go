package core

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderBilled    OrderStatus = "billed"
)

// OrderStatuses lists every state, in lifecycle order.
var OrderStatuses = []OrderStatus{OrderDraft, OrderConfirmed, OrderCancelled, OrderBilled}

// Valid reports whether s is a known state.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderConfirmed, OrderCancelled, OrderBilled:
		return true
	}
	return false
}

// OrderAction is something that moves an order between states.
type OrderAction string

const (
	ActionConfirm OrderAction = "confirm"
	ActionCancel  OrderAction = "cancel"
	ActionRevert  OrderAction = "revert"
	ActionBill    OrderAction = "bill"
)

// OrderActions lists every action.
var OrderActions = []OrderAction{ActionConfirm, ActionCancel, ActionRevert, ActionBill}

// NextOrderStatus is the order transition table. It returns the state an
// order of the given kind reaches when action is applied in state from, or
// an ErrInvalidState error when the move is not allowed.
//
//	draft     --confirm--> confirmed
//	draft     --cancel---> cancelled
//	confirmed --bill-----> billed
//	confirmed --cancel---> cancelled   (purchase only)
//	confirmed --revert---> draft       (purchase only)
//	cancelled --revert---> draft       (purchase only)
//
// billed is terminal. Reverting a draft is rejected rather than treated as a no-op.
func NextOrderStatus(kind OrderKind, from OrderStatus, action OrderAction) (OrderStatus, error) {
	purchase := kind == PurchaseOrderKind

	switch from {
	case OrderDraft:
		switch action {
		case ActionConfirm:
			return OrderConfirmed, nil
		case ActionCancel:
			return OrderCancelled, nil
		}
	case OrderConfirmed:
		switch action {
		case ActionBill:
			return OrderBilled, nil
		case ActionCancel:
			if purchase {
				return OrderCancelled, nil
			}
		case ActionRevert:
			if purchase {
				return OrderDraft, nil
			}
		}
	case OrderCancelled:
		if action == ActionRevert && purchase {
			return OrderDraft, nil
		}
	case OrderBilled:
	}

	return "", invalidState(string(action)+" "+kind.String(), kind.String(), 0,
		"cannot %s a %s in status %s", action, kind, from)
}
