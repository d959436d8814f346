package services

import (
	"sort"
	"strings"

	"storefront/internal/models"
)

// Sort orders understood by FilterProducts.
const (
	SortPriceAsc   = "price-asc"
	SortPriceDesc  = "price-desc"
	SortNewest     = "newest"
	SortRating     = "rating"
	SortPopularity = "popularity"
)

const (
	categoryAll         = "all"
	bestsellerMinRating = 4.5
)

// ProductFilter narrows and orders a product set.
type ProductFilter struct {
	Category    string
	SubCategory string
	Sort        string
}

// FilterProducts returns a new slice; products is never modified.
// "newest" reverses the input order, it does not look at timestamps.
func FilterProducts(products []models.Product, filter ProductFilter) []models.Product {
	result := make([]models.Product, 0, len(products))
	for _, p := range products {
		if filter.Category != "" && filter.Category != categoryAll && string(p.Category) != filter.Category {
			continue
		}
		if filter.Category == string(models.CategoryFashion) && filter.SubCategory != "" &&
			string(p.SubCategoryValue()) != filter.SubCategory {
			continue
		}
		result = append(result, p)
	}

	switch filter.Sort {
	case SortPriceAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	case SortNewest:
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	case SortRating:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	}

	return result
}

// SearchProducts keeps products whose name, category or description contains
// query, ignoring case. An empty query matches nothing.
func SearchProducts(products []models.Product, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]models.Product, 0)
	if q == "" {
		return result
	}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(string(p.Category)), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			result = append(result, p)
		}
	}
	return result
}

// Bestsellers keeps products rated 4.5 or above, best first.
func Bestsellers(products []models.Product) []models.Product {
	result := make([]models.Product, 0)
	for _, p := range products {
		if p.Rating >= bestsellerMinRating {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	return result
}

// Collection keeps the products shown on a gents or ladies page.
func Collection(products []models.Product, gender models.Gender) []models.Product {
	result := make([]models.Product, 0)
	for _, p := range products {
		if p.GenderValue() == gender {
			result = append(result, p)
		}
	}
	return result
}
