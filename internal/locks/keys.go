package locks

// Resource key prefixes. They sort cart < product < wallet, so a cart key is
// always the first key of any set that contains it.
const (
	prefixCart    = "cart:"
	prefixProduct = "product:"
	prefixWallet  = "wallet:"
)

func CartKey(user string) string   { return prefixCart + user }
func ProductKey(id string) string  { return prefixProduct + id }
func WalletKey(user string) string { return prefixWallet + user }
