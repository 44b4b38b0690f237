package services

// ResolveEffectiveLocation derives one container's origin/destination.
//
// Without per-container location columns the booking-level pair always wins.
// With sameForAll the booking-level pair overwrites any per-container value,
// including a previously stored override. Otherwise each direction falls back
// to the booking-level value independently.
func ResolveEffectiveLocation(perFrom, perTo, bookingFrom, bookingTo *int64, sameForAll, perContainerEnabled bool) (from, to *int64) {
	if !perContainerEnabled || sameForAll {
		return bookingFrom, bookingTo
	}
	from, to = perFrom, perTo
	if from == nil {
		from = bookingFrom
	}
	if to == nil {
		to = bookingTo
	}
	return from, to
}
