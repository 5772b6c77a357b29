package domain

// PlaceholderImageURL is used for cart lines whose product has no photos.
const PlaceholderImageURL = "/placeholder.png"

type Photo struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Product is a catalog record. Price is in minor currency units.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Category    string  `json:"category"`
	Photos      []Photo `json:"photos"`
	SoldOut     bool    `json:"soldOut"`
}

// ImageURL returns the first photo URL, or the placeholder when the
// product has none.
func (p Product) ImageURL() string {
	if len(p.Photos) > 0 && p.Photos[0].URL != "" {
		return p.Photos[0].URL
	}
	return PlaceholderImageURL
}
