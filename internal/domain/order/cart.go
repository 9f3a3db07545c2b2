package order

// CartItem is one raw cart entry as received from the presentation layer.
// The category is implied by which request slice it arrived in.
type CartItem struct {
	ItemID   int64
	Quantity int
}

// NormalizeItems drops entries with a non-positive item id or quantity and
// merges duplicates of the same item id by summing quantities. The result
// preserves first-seen order, so later merges never reorder lines. Dropped
// entries are not an error; an empty pizza category is rejected downstream.
func NormalizeItems(raw []CartItem) []CartItem {
	merged := make([]CartItem, 0, len(raw))
	index := make(map[int64]int, len(raw))
	for _, entry := range raw {
		if entry.ItemID <= 0 || entry.Quantity <= 0 {
			continue
		}
		if i, ok := index[entry.ItemID]; ok {
			merged[i].Quantity += entry.Quantity
			continue
		}
		index[entry.ItemID] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

// totalQuantity sums quantities across normalized cart items.
func totalQuantity(items []CartItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}
