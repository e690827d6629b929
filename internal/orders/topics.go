package orders

const (
	TopicOrderPlaced = "store.order.placed"
)

// Partition key = order id so every event for one order stays ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
