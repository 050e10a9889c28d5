package enum

// Action open long, open short, close only, no action
type Action uint8

const (
	_action_beg Action = iota
	ActionOpenLong
	ActionOpenShort
	ActionCloseOnly
	ActionNoAction
	_action_end
)

func (a Action) IsAvailable() bool {
	return a > _action_beg && a < _action_end
}

func (a Action) String() string {
	switch a {
	case ActionOpenLong:
		return "open_long"
	case ActionOpenShort:
		return "open_short"
	case ActionCloseOnly:
		return "close_only"
	case ActionNoAction:
		return "no_action"
	default:
		return "unknown"
	}
}

// OpenSide returns the order side that opens the signaled position.
func (a Action) OpenSide() (OrderSide, bool) {
	switch a {
	case ActionOpenLong:
		return OrderSideBuy, true
	case ActionOpenShort:
		return OrderSideSell, true
	default:
		return 0, false
	}
}
