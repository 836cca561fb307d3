package order

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusRevision   Status = "revision"
	StatusCancelled  Status = "cancelled"
)

// Action is a user-initiated transition request. Accept is context dependent:
// a seller accepts a pending order, a buyer accepts a delivery.
type Action string

const (
	ActionAccept          Action = "accept"
	ActionCancel          Action = "cancel"
	ActionDeliver         Action = "deliver"
	ActionRequestRevision Action = "request_revision"
)

type transitionKey struct {
	current Status
	role    Role
	action  Action
}

// transitions is the complete state machine. Anything not listed is an
// invalid transition.
var transitions = map[transitionKey]Status{
	{StatusPending, RoleSeller, ActionAccept}:           StatusInProgress,
	{StatusPending, RoleSeller, ActionCancel}:           StatusCancelled,
	{StatusPending, RoleBuyer, ActionCancel}:            StatusCancelled,
	{StatusInProgress, RoleSeller, ActionDeliver}:       StatusDelivered,
	{StatusRevision, RoleSeller, ActionDeliver}:         StatusDelivered,
	{StatusDelivered, RoleBuyer, ActionAccept}:          StatusCompleted,
	{StatusDelivered, RoleBuyer, ActionRequestRevision}: StatusRevision,
}

// NextStatus resolves the state machine: the status the action leads to from
// current when performed by role, or false when the transition is not
// allowed.
func NextStatus(current Status, role Role, action Action) (Status, bool) {
	next, ok := transitions[transitionKey{current: current, role: role, action: action}]
	return next, ok
}

// ReasonRequired reports whether the action must carry a non-empty reason.
func ReasonRequired(action Action) bool {
	return action == ActionCancel || action == ActionRequestRevision
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDelivered, StatusCompleted, StatusRevision, StatusCancelled:
		return true
	default:
		return false
	}
}

// ValidAction reports whether a is a known action.
func ValidAction(a Action) bool {
	switch a {
	case ActionAccept, ActionCancel, ActionDeliver, ActionRequestRevision:
		return true
	default:
		return false
	}
}
