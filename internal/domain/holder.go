package domain

// HolderSet is an ordered collection of unique account addresses.
// Order of first discovery is preserved so downstream output is
// deterministic regardless of fetch completion order.
type HolderSet struct {
	addresses []string
	index     map[string]struct{}
}

// NewHolderSet creates an empty holder set.
func NewHolderSet() *HolderSet {
	return &HolderSet{index: make(map[string]struct{})}
}

// Add appends an address if it has not been seen before.
// Returns true if the address was added.
func (h *HolderSet) Add(address string) bool {
	if _, ok := h.index[address]; ok {
		return false
	}
	h.index[address] = struct{}{}
	h.addresses = append(h.addresses, address)
	return true
}

// Contains reports whether the address is in the set.
func (h *HolderSet) Contains(address string) bool {
	_, ok := h.index[address]
	return ok
}

// Len returns the number of unique addresses.
func (h *HolderSet) Len() int {
	return len(h.addresses)
}

// Addresses returns the addresses in discovery order.
// The returned slice is a copy.
func (h *HolderSet) Addresses() []string {
	out := make([]string, len(h.addresses))
	copy(out, h.addresses)
	return out
}
