package charges

// SelectTargets filters units down to those addressed by scope.
// The returned slice is new and keeps input order.
func SelectTargets(units []Unit, scope TargetScope, selectedIDs []string) ([]Unit, error) {
	switch scope {
	case TargetScopeAll:
		return filterUnits(units, func(Unit) bool { return true }), nil
	case TargetScopeOccupied:
		return filterUnits(units, func(u Unit) bool { return u.IsOccupied }), nil
	case TargetScopeEmpty:
		return filterUnits(units, func(u Unit) bool { return !u.IsOccupied }), nil
	case TargetScopeCustom:
		if len(selectedIDs) == 0 {
			return nil, ErrEmptySelection
		}
		selected := make(map[string]struct{}, len(selectedIDs))
		for _, id := range selectedIDs {
			selected[id] = struct{}{}
		}
		return filterUnits(units, func(u Unit) bool {
			_, ok := selected[u.ID]
			return ok
		}), nil
	default:
		return nil, ErrInvalidScope
	}
}

func filterUnits(units []Unit, keep func(Unit) bool) []Unit {
	out := make([]Unit, 0, len(units))
	for _, unit := range units {
		if keep(unit) {
			out = append(out, unit)
		}
	}
	return out
}
