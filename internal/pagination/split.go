package pagination

import "math"

// SplitLimit divides limit into a network share of ceil(limit*ratio) and the remainder.
func SplitLimit(limit int, ratio float64) (networkLimit, discoveryLimit int) {
	if ratio <= 0 {
		return 0, limit
	}
	if ratio >= 1 {
		return limit, 0
	}
	// 1e-9 absorbs float error such as 10*0.3 landing just above 3.
	networkLimit = int(math.Ceil(float64(limit)*ratio - 1e-9))
	if networkLimit > limit {
		networkLimit = limit
	}
	return networkLimit, limit - networkLimit
}

// Window is one page's slice of two independently ranked streams.
type Window struct {
	NetworkSkip   int
	NetworkTake   int
	DiscoverySkip int
	DiscoveryTake int
}

// SplitWindow places page over two streams of networkTotal and discoveryTotal
// items. Every page takes networkLimit items from the network stream and the
// rest of limit from the discovery stream; once either stream runs dry the
// other fills the page. Pages never overlap and, taken in order, cover both
// streams exactly once, so totals can be summarized as networkTotal+discoveryTotal
// against limit.
func SplitWindow(page, limit, networkLimit int, networkTotal, discoveryTotal int64) Window {
	netBefore, discBefore := consumed(page-1, limit, networkLimit, networkTotal, discoveryTotal)
	netAfter, discAfter := consumed(page, limit, networkLimit, networkTotal, discoveryTotal)
	return Window{
		NetworkSkip:   int(netBefore),
		NetworkTake:   int(netAfter - netBefore),
		DiscoverySkip: int(discBefore),
		DiscoveryTake: int(discAfter - discBefore),
	}
}

// consumed returns how many items of each stream the first pages pages hold.
func consumed(pages, limit, networkLimit int, networkTotal, discoveryTotal int64) (int64, int64) {
	if pages <= 0 {
		return 0, 0
	}
	k := int64(pages)
	all := k * int64(limit)
	net := min(networkTotal, max(k*int64(networkLimit), all-discoveryTotal))
	disc := min(discoveryTotal, max(k*int64(limit-networkLimit), all-networkTotal))
	return net, disc
}
