package enum

// PositionSide long, short, flat
type PositionSide uint8

const (
	_position_side_beg PositionSide = iota
	PositionSideLong
	PositionSideShort
	PositionSideFlat
	_position_side_end
)

func (s PositionSide) IsAvailable() bool {
	return s > _position_side_beg && s < _position_side_end
}

// Venue returns the venue wire value for the side used to open it.
func (s PositionSide) Venue() string {
	switch s {
	case PositionSideLong:
		return "Buy"
	case PositionSideShort:
		return "Sell"
	default:
		return "None"
	}
}

// PositionSideFromVenue maps the venue wire value. "None" and unknown
// values map to flat.
func PositionSideFromVenue(s string) PositionSide {
	switch s {
	case "Buy":
		return PositionSideLong
	case "Sell":
		return PositionSideShort
	default:
		return PositionSideFlat
	}
}

// OrderSide buy, sell
type OrderSide uint8

const (
	_order_side_beg OrderSide = iota
	OrderSideBuy
	OrderSideSell
	_order_side_end
)

func (s OrderSide) IsAvailable() bool {
	return s > _order_side_beg && s < _order_side_end
}

func (s OrderSide) Venue() string {
	switch s {
	case OrderSideBuy:
		return "Buy"
	case OrderSideSell:
		return "Sell"
	default:
		return ""
	}
}

// Inverse returns the side that reduces a position held on s.
func (s PositionSide) Inverse() OrderSide {
	switch s {
	case PositionSideLong:
		return OrderSideSell
	case PositionSideShort:
		return OrderSideBuy
	default:
		return 0
	}
}
