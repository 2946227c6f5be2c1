// Package carousel derives the promo carousel pages from the catalog. It
// is pure: no state, no I/O, just partitioning.
package carousel

import (
	"sort"

	"PartsStore/internal/catalog"
)

// DefaultPerPage matches the storefront's four product cards per slide.
const DefaultPerPage = 4

// Eligible returns the products flagged for carousel display, sorted
// ascending by carousel index. The sort is stable, so products sharing an
// index keep their catalog load order.
func Eligible(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if p.Carousel {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CarouselIndex < out[j].CarouselIndex
	})
	return out
}

// Pages partitions the carousel-eligible products into contiguous,
// non-overlapping pages of up to perPage items. The last page may be
// short; zero eligible products mean zero pages.
func Pages(products []catalog.Product, perPage int) [][]catalog.Product {
	if perPage < 1 {
		return nil
	}

	eligible := Eligible(products)
	pages := make([][]catalog.Product, 0, PageCount(len(eligible), perPage))
	for i := 0; i < len(eligible); i += perPage {
		end := i + perPage
		if end > len(eligible) {
			end = len(eligible)
		}
		pages = append(pages, eligible[i:end])
	}
	return pages
}

// PageCount is ceil(totalEligible / perPage).
func PageCount(totalEligible, perPage int) int {
	if perPage < 1 || totalEligible < 1 {
		return 0
	}
	return (totalEligible + perPage - 1) / perPage
}

// PageAt returns the page at index, or an empty page when index is out of
// range.
func PageAt(products []catalog.Product, index, perPage int) []catalog.Product {
	pages := Pages(products, perPage)
	if index < 0 || index >= len(pages) {
		return []catalog.Product{}
	}
	return pages[index]
}
