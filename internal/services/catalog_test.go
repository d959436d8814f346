package services

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
)

func sub(s models.SubCategory) *models.SubCategory { return &s }
func gen(g models.Gender) *models.Gender          { return &g }

func catalogFixture() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Silk Dress", Category: models.CategoryFashion, SubCategory: sub(models.SubCategoryLadies), Gender: gen(models.GenderLadies), Price: 80, Rating: 4.8},
		{ID: "2", Name: "Headphones", Description: "Noise cancelling", Category: models.CategoryElectronics, Price: 150, Rating: 4.2},
		{ID: "3", Name: "Oxford Shirt", Category: models.CategoryFashion, SubCategory: sub(models.SubCategoryGents), Gender: gen(models.GenderGents), Price: 40, Rating: 4.5},
		{ID: "4", Name: "Lipstick", Category: models.CategoryBeauty, Price: 15, Rating: 3.9},
		{ID: "5", Name: "Scarf", Category: models.CategoryFashion, Gender: gen(models.GenderUnisex), Price: 40, Rating: 4.9},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilterProducts_CategoryAndSubCategory(t *testing.T) {
	got := FilterProducts(catalogFixture(), ProductFilter{Category: "fashion", SubCategory: "ladies"})
	assert.Equal(t, []string{"1"}, ids(got))
	for _, p := range got {
		assert.Equal(t, models.CategoryFashion, p.Category)
		assert.Equal(t, models.SubCategoryLadies, p.SubCategoryValue())
	}
}

func TestFilterProducts_AllAndEmptyPassThrough(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(FilterProducts(catalogFixture(), ProductFilter{Category: "all"})))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(FilterProducts(catalogFixture(), ProductFilter{})))
}

func TestFilterProducts_SubCategoryIgnoredOutsideFashion(t *testing.T) {
	got := FilterProducts(catalogFixture(), ProductFilter{Category: "electronics", SubCategory: "ladies"})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilterProducts_PriceSortsAreStable(t *testing.T) {
	asc := FilterProducts(catalogFixture(), ProductFilter{Sort: SortPriceAsc})
	assert.Equal(t, []string{"4", "3", "5", "1", "2"}, ids(asc))
	for i := 1; i < len(asc); i++ {
		assert.LessOrEqual(t, asc[i-1].Price, asc[i].Price)
	}

	desc := FilterProducts(catalogFixture(), ProductFilter{Sort: SortPriceDesc})
	assert.Equal(t, []string{"2", "1", "3", "5", "4"}, ids(desc))
}

func randomProducts(r *rand.Rand, n int) []models.Product {
	categories := []models.Category{models.CategoryFashion, models.CategoryElectronics, models.CategoryBeauty}
	out := make([]models.Product, n)
	for i := range out {
		out[i] = models.Product{
			ID:       strconv.Itoa(i),
			Category: categories[r.Intn(len(categories))],
			Price:    float64(r.Intn(50)) + float64(r.Intn(4))*0.25,
		}
	}
	return out
}

func TestFilterProducts_PriceOrderHoldsForAnyInput(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, size := range []int{0, 1, 2, 7, 50, 200} {
		for round := 0; round < 20; round++ {
			products := randomProducts(r, size)
			original := ids(products)

			for _, filter := range []ProductFilter{{Sort: SortPriceAsc}, {Category: "fashion", Sort: SortPriceAsc}} {
				asc := FilterProducts(products, filter)
				for i := 1; i < len(asc); i++ {
					if asc[i-1].Price > asc[i].Price {
						t.Fatalf("size %d: price-asc broken at %d: %v > %v", size, i, asc[i-1].Price, asc[i].Price)
					}
				}
			}

			desc := FilterProducts(products, ProductFilter{Sort: SortPriceDesc})
			for i := 1; i < len(desc); i++ {
				if desc[i-1].Price < desc[i].Price {
					t.Fatalf("size %d: price-desc broken at %d", size, i)
				}
			}

			got := ids(FilterProducts(products, ProductFilter{Sort: SortPriceAsc}))
			sort.Strings(got)
			want := make([]string, len(original))
			copy(want, original)
			sort.Strings(want)
			assert.Equal(t, want, got, "sorting must keep every product")
			assert.Equal(t, original, ids(products), "input must not be reordered")
		}
	}
}

func TestFilterProducts_NewestReversesInput(t *testing.T) {
	got := FilterProducts(catalogFixture(), ProductFilter{Category: "fashion", Sort: SortNewest})
	assert.Equal(t, []string{"5", "3", "1"}, ids(got))
}

func TestFilterProducts_PopularityAndRating(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(FilterProducts(catalogFixture(), ProductFilter{Sort: SortPopularity})))
	assert.Equal(t, []string{"5", "1", "3", "2", "4"}, ids(FilterProducts(catalogFixture(), ProductFilter{Sort: SortRating})))
}

func TestFilterProducts_DoesNotMutateInput(t *testing.T) {
	input := catalogFixture()
	_ = FilterProducts(input, ProductFilter{Sort: SortPriceAsc})
	_ = FilterProducts(input, ProductFilter{Sort: SortNewest})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(input))
}

func TestSearchProducts(t *testing.T) {
	assert.Equal(t, []string{"2"}, ids(SearchProducts(catalogFixture(), "NOISE")))
	assert.Equal(t, []string{"4"}, ids(SearchProducts(catalogFixture(), "beauty")))
	assert.Equal(t, []string{"3"}, ids(SearchProducts(catalogFixture(), " shirt ")))
	assert.Empty(t, SearchProducts(catalogFixture(), ""))
}

func TestBestsellers(t *testing.T) {
	assert.Equal(t, []string{"5", "1", "3"}, ids(Bestsellers(catalogFixture())))
}

func TestCollection(t *testing.T) {
	assert.Equal(t, []string{"3"}, ids(Collection(catalogFixture(), models.GenderGents)))
	assert.Equal(t, []string{"1"}, ids(Collection(catalogFixture(), models.GenderLadies)))
}
