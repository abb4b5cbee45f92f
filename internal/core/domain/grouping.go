package domain

import "sort"

// ContentGroup summarizes the shipment contents for one (product name,
// gender) pair. It is a pure display projection with no identity of its own.
type ContentGroup struct {
	ProductName string `json:"product_name"`
	Gender      string `json:"gender"`
	TotalItems  int    `json:"total_items"`
	TotalBoxes  int    `json:"total_boxes"`
	TotalLosts  int    `json:"total_losts"`
}

// GroupContents groups the non-removed details by (source product name,
// gender) and sums quantities, box counts and lost counts per group. Groups
// are ordered by ascending lost count so intact groups surface first; ties
// keep a stable alphabetical order by product name, then gender.
func GroupContents(details []ShipmentDetail) []ContentGroup {
	type key struct {
		name   string
		gender string
	}

	groups := make(map[key]*ContentGroup)
	var order []key
	for _, d := range details {
		if d.RemovedOn != nil {
			continue
		}
		k := key{name: d.SourceProduct.Name, gender: d.SourceProduct.Gender}
		g, ok := groups[k]
		if !ok {
			g = &ContentGroup{ProductName: k.name, Gender: k.gender}
			groups[k] = g
			order = append(order, k)
		}
		g.TotalItems += d.SourceQuantity
		g.TotalBoxes++
		if d.LostOn != nil {
			g.TotalLosts++
		}
	}

	out := make([]ContentGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalLosts != out[j].TotalLosts {
			return out[i].TotalLosts < out[j].TotalLosts
		}
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].Gender < out[j].Gender
	})
	return out
}
