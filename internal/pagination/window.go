package pagination

// PageItem is one entry of a pagination bar. Gap entries render as an
// ellipsis and carry no page number.
type PageItem struct {
	Page    int  `json:"page,omitempty"`
	Current bool `json:"current,omitempty"`
	Gap     bool `json:"gap,omitempty"`
}

// Window lists the pages to show for current out of total: the first page,
// the last page and the neighbours of current, with gaps between runs.
func Window(current, total int) []PageItem {
	if total <= 0 {
		return nil
	}
	var items []PageItem
	prev := 0
	for n := 1; n <= total; n++ {
		if n != 1 && n != total && (n < current-1 || n > current+1) {
			continue
		}
		if prev != 0 && n != prev+1 {
			items = append(items, PageItem{Gap: true})
		}
		items = append(items, PageItem{Page: n, Current: n == current})
		prev = n
	}
	return items
}
