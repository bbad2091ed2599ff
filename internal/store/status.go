package store

type RentalStatus string

const (
	RentalActive   RentalStatus = "active"
	RentalReturned RentalStatus = "returned"
)

var validNext = map[RentalStatus]map[RentalStatus]bool{
	RentalActive:   {RentalReturned: true},
	RentalReturned: {},
}

func CanTransition(from, to RentalStatus) bool {
	return validNext[from][to]
}
