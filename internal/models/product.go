package models

import "time"

// Category is the top-level product category.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryFashion     Category = "fashion"
	CategoryBeauty      Category = "beauty"
	CategoryAccessories Category = "accessories"
	CategoryHome        Category = "home"
)

// Categories lists every category the backend accepts.
var Categories = []Category{CategoryElectronics, CategoryFashion, CategoryBeauty, CategoryAccessories, CategoryHome}

// SubCategory only exists for fashion products.
type SubCategory string

const (
	SubCategoryGents  SubCategory = "gents"
	SubCategoryLadies SubCategory = "ladies"
)

// Gender targets a product at a collection page.
type Gender string

const (
	GenderGents  Gender = "gents"
	GenderLadies Gender = "ladies"
	GenderUnisex Gender = "unisex"
)

// Sizes is the fixed size enumeration, smallest first.
var Sizes = []string{"XS", "S", "M", "L", "XL", "XXL", "XXXL"}

const (
	MaxProductImages   = 5
	MaxNameLength      = 200
	MaxDescriptionSize = 2000
)

// Product mirrors the backend product document. SubCategory and Gender are
// nil when the backend sends null or omits them.
type Product struct {
	ID              string       `json:"_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	MainPrice       float64      `json:"mainPrice"`
	Price           float64      `json:"price"`
	DiscountPercent float64      `json:"discountPercent"`
	Images          []string     `json:"images"`
	Category        Category     `json:"category"`
	SubCategory     *SubCategory `json:"subCategory,omitempty"`
	Gender          *Gender      `json:"gender,omitempty"`
	Stock           int          `json:"stock"`
	Rating          float64      `json:"rating"`
	Reviews         []Review     `json:"reviews"`
	IsFlashSale     bool         `json:"isFlashSale"`
	IsActive        bool         `json:"isActive"`
	Sizes           []string     `json:"sizes"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// SubCategoryValue returns the sub-category or "" when unset.
func (p Product) SubCategoryValue() SubCategory {
	if p.SubCategory == nil {
		return ""
	}
	return *p.SubCategory
}

// GenderValue returns the gender or "" when unset.
func (p Product) GenderValue() Gender {
	if p.Gender == nil {
		return ""
	}
	return *p.Gender
}

// MainImage returns the first image or "".
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Review is a customer review attached to a product.
type Review struct {
	UserID    string    `json:"userId"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewInput is the payload for adding a review.
type ReviewInput struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

// Pagination is the backend pagination block.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// ProductFilters are the listing query parameters understood by the backend.
type ProductFilters struct {
	Category    string   `json:"category,omitempty"`
	SubCategory string   `json:"subCategory,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	IsFlashSale *bool    `json:"isFlashSale,omitempty"`
	Search      string   `json:"search,omitempty"`
	Sort        string   `json:"sort,omitempty"`
	Page        int      `json:"page,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// ProductInput is the create payload. Images may hold URLs; uploaded files
// travel separately as ImageUpload values.
type ProductInput struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	MainPrice   float64      `json:"mainPrice"`
	Price       float64      `json:"price"`
	Images      []string     `json:"images,omitempty"`
	Category    Category     `json:"category"`
	SubCategory *SubCategory `json:"subCategory"`
	Gender      *Gender      `json:"gender"`
	Stock       int          `json:"stock"`
	Rating      float64      `json:"rating,omitempty"`
	IsFlashSale bool         `json:"isFlashSale"`
	IsActive    bool         `json:"isActive"`
	Sizes       []string     `json:"sizes"`
}

// ProductUpdate is a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	MainPrice   *float64     `json:"mainPrice,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	Images      []string     `json:"images,omitempty"`
	Category    *Category    `json:"category,omitempty"`
	SubCategory *SubCategory `json:"subCategory,omitempty"`
	Gender      *Gender      `json:"gender,omitempty"`
	Stock       *int         `json:"stock,omitempty"`
	Rating      *float64     `json:"rating,omitempty"`
	IsFlashSale *bool        `json:"isFlashSale,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
	Sizes       []string     `json:"sizes,omitempty"`
}

// ImageUpload is one file forwarded to the backend in a multipart request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Availability reports whether a quantity of a product can be ordered.
type Availability struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// StockUpdate sets the absolute stock level of a product.
type StockUpdate struct {
	Quantity int `json:"quantity"`
}
