package rental

const (
	TopicRentalCreated  = "rental.created"
	TopicRentalReturned = "rental.returned"
)

// Partition key = rental_id, jadi event satu rental selalu jatuh di partition yang sama.
func PartitionKey(id string) []byte { return []byte(id) }
