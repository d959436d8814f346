package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/session"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
	// browseLimit is how many products a search or collection page filters locally.
	browseLimit = 100
)

// ProductHandler serves the catalog pages.
type ProductHandler struct {
	catalog CatalogGateway
	log     *logger.Logger
}

func NewProductHandler(catalog CatalogGateway, log *logger.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, log: log}
}

// ProductListResponse is a product set without backend pagination.
type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Count    int              `json:"count"`
}

func productList(products []models.Product) ProductListResponse {
	if products == nil {
		products = []models.Product{}
	}
	return ProductListResponse{Products: products, Count: len(products)}
}

// token returns the bearer token of the caller, empty for guests.
func token(r *http.Request) string {
	s, err := session.FromContext(r.Context())
	if err != nil {
		return ""
	}
	return s.Token
}

func parseLimit(r *http.Request, def int) (int, error) {
	limit, err := queryInt(r, "limit", def)
	if err != nil {
		return 0, err
	}
	if limit == 0 || limit > maxProductLimit {
		limit = def
	}
	return limit, nil
}

func parseProductFilters(r *http.Request) (*models.ProductFilters, error) {
	q := r.URL.Query()
	filters := &models.ProductFilters{
		Category:    strings.TrimSpace(q.Get("category")),
		SubCategory: strings.TrimSpace(q.Get("subCategory")),
		Gender:      strings.TrimSpace(q.Get("gender")),
		Search:      strings.TrimSpace(q.Get("search")),
		Sort:        strings.TrimSpace(q.Get("sort")),
	}

	var err error
	if filters.MinPrice, err = queryFloat(r, "minPrice"); err != nil {
		return nil, err
	}
	if filters.MaxPrice, err = queryFloat(r, "maxPrice"); err != nil {
		return nil, err
	}
	if filters.IsFlashSale, err = queryBool(r, "isFlashSale"); err != nil {
		return nil, err
	}
	if filters.Page, err = queryInt(r, "page", 1); err != nil {
		return nil, err
	}
	if filters.Limit, err = parseLimit(r, defaultProductLimit); err != nil {
		return nil, err
	}
	return filters, nil
}

// ListProducts answers the shop page. The backend narrows and paginates; the
// page is then filtered and ordered locally so category, sub-category and
// sort behave the same whichever backend version answers.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	filters, err := parseProductFilters(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), token(r), filters)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load products")
		return
	}

	page.Products = services.FilterProducts(page.Products, services.ProductFilter{
		Category:    filters.Category,
		SubCategory: filters.SubCategory,
		Sort:        filters.Sort,
	})
	writeJSONResponse(w, http.StatusOK, page)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), token(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load product")
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

func (h *ProductHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	limit, err := parseLimit(r, defaultProductLimit)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.catalog.ProductsByCategory(r.Context(), token(r), r.PathValue("category"), limit)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load category")
		return
	}
	writeJSONResponse(w, http.StatusOK, productList(products))
}

func (h *ProductHandler) FlashSale(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	limit, err := parseLimit(r, defaultProductLimit)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.catalog.FlashSaleProducts(r.Context(), token(r), limit)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load flash sale")
		return
	}
	writeJSONResponse(w, http.StatusOK, productList(products))
}

// Bestsellers keeps only products rated 4.5 or better, best first.
func (h *ProductHandler) Bestsellers(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	limit, err := parseLimit(r, defaultProductLimit)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.catalog.Bestsellers(r.Context(), token(r), limit)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load bestsellers")
		return
	}
	writeJSONResponse(w, http.StatusOK, productList(services.Bestsellers(products)))
}

// Search matches q against name, category and description.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONResponse(w, http.StatusOK, productList(nil))
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), token(r), &models.ProductFilters{Search: query, Limit: browseLimit})
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to search products")
		return
	}
	writeJSONResponse(w, http.StatusOK, productList(services.SearchProducts(page.Products, query)))
}

// Collection serves the gents and ladies pages.
func (h *ProductHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	gender := models.Gender(strings.ToLower(r.PathValue("gender")))
	if gender != models.GenderGents && gender != models.GenderLadies {
		writeErrorResponse(w, http.StatusNotFound, "Collection not found")
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), token(r), &models.ProductFilters{Gender: string(gender), Limit: browseLimit})
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load collection")
		return
	}

	products := services.FilterProducts(services.Collection(page.Products, gender), services.ProductFilter{
		Sort: r.URL.Query().Get("sort"),
	})
	writeJSONResponse(w, http.StatusOK, productList(products))
}

func (h *ProductHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	quantity, err := queryInt(r, "quantity", 1)
	if err != nil || quantity < 1 {
		writeErrorResponse(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	id := r.PathValue("id")
	available, err := h.catalog.CheckAvailability(r.Context(), token(r), id, quantity)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to check availability")
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Availability{ProductID: id, Quantity: quantity, Available: available})
}

// AddReview requires a logged-in shopper; RequireUser guards the route.
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var review models.ReviewInput
	if err := decodeJSON(w, r, &review); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if review.Rating < 1 || review.Rating > 5 {
		writeErrorResponse(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	review.Comment = strings.TrimSpace(review.Comment)

	product, err := h.catalog.AddReview(r.Context(), token(r), r.PathValue("id"), &review)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to add review")
		return
	}
	writeJSONResponse(w, http.StatusCreated, product)
}
