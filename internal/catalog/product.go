package catalog

// Product is one catalog entry. Field names follow the products.json
// document, which is the canonical shape for every source.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	OldPrice      float64 `json:"oldPrice,omitempty"`
	Category      string  `json:"category,omitempty"`
	Image         string  `json:"image,omitempty"`
	Stock         int     `json:"stock"`
	Carousel      bool    `json:"carousel,omitempty"`
	CarouselIndex int     `json:"carouselIndex,omitempty"`
	Badge         string  `json:"badge,omitempty"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// AllCategories is the pseudo-category matching every product.
const AllCategories = "all"
