package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/models"
)

type productData struct {
	Product models.Product `json:"product"`
}

type productsData struct {
	Products []models.Product `json:"products"`
}

type availabilityData struct {
	Available bool `json:"available"`
}

func productPath(id string) string {
	return "/products/" + url.PathEscape(id)
}

// filtersQuery never sends Sort; pages are ordered by the storefront.
func filtersQuery(f *models.ProductFilters) url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.Category != "" && f.Category != "all" {
		q.Set("category", f.Category)
	}
	if f.SubCategory != "" {
		q.Set("subCategory", f.SubCategory)
	}
	if f.Gender != "" {
		q.Set("gender", f.Gender)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.IsFlashSale != nil {
		q.Set("isFlashSale", strconv.FormatBool(*f.IsFlashSale))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// ListProducts returns one page of products matching filters.
func (c *Client) ListProducts(ctx context.Context, token string, filters *models.ProductFilters) (*models.ProductPage, error) {
	page := &models.ProductPage{}
	if err := c.cachedGet(ctx, "/products", filtersQuery(filters), token, c.ttl.Listing, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) GetProduct(ctx context.Context, token, id string) (*models.Product, error) {
	var data productData
	if err := c.cachedGet(ctx, productPath(id), nil, token, c.ttl.Product, &data); err != nil {
		return nil, err
	}
	return &data.Product, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, token, category string, limit int) ([]models.Product, error) {
	var data productsData
	path := "/products/category/" + url.PathEscape(category)
	if err := c.cachedGet(ctx, path, limitQuery(limit), token, c.ttl.Listing, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

func (c *Client) FlashSaleProducts(ctx context.Context, token string, limit int) ([]models.Product, error) {
	var data productsData
	if err := c.cachedGet(ctx, "/products/flash-sale", limitQuery(limit), token, c.ttl.FlashSale, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

func (c *Client) Bestsellers(ctx context.Context, token string, limit int) ([]models.Product, error) {
	var data productsData
	if err := c.cachedGet(ctx, "/products/bestsellers", limitQuery(limit), token, c.ttl.Bestseller, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

// CheckAvailability is never cached; stock changes with every order.
func (c *Client) CheckAvailability(ctx context.Context, token, id string, quantity int) (bool, error) {
	var data availabilityData
	q := url.Values{}
	q.Set("quantity", strconv.Itoa(quantity))
	err := c.call(ctx, &request{method: http.MethodGet, path: productPath(id) + "/availability", query: q, token: token}, &data)
	if err != nil {
		return false, err
	}
	return data.Available, nil
}

func (c *Client) AddReview(ctx context.Context, token, id string, review *models.ReviewInput) (*models.Product, error) {
	return c.productMutation(ctx, http.MethodPost, productPath(id)+"/reviews", token, review)
}

func (c *Client) CreateProduct(ctx context.Context, token string, input *models.ProductInput) (*models.Product, error) {
	return c.productMutation(ctx, http.MethodPost, "/products", token, input)
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, update *models.ProductUpdate) (*models.Product, error) {
	return c.productMutation(ctx, http.MethodPatch, productPath(id), token, update)
}

func (c *Client) UpdateStock(ctx context.Context, token, id string, quantity int) (*models.Product, error) {
	return c.productMutation(ctx, http.MethodPatch, productPath(id)+"/stock", token, &models.StockUpdate{Quantity: quantity})
}

// SoftDeleteProduct deactivates a product; it stays in the backend.
func (c *Client) SoftDeleteProduct(ctx context.Context, token, id string) error {
	return c.call(ctx, &request{method: http.MethodDelete, path: productPath(id), token: token}, nil)
}

// HardDeleteProduct removes a product and its images permanently.
func (c *Client) HardDeleteProduct(ctx context.Context, token, id string) error {
	return c.call(ctx, &request{method: http.MethodDelete, path: productPath(id) + "/permanent", token: token}, nil)
}

func (c *Client) productMutation(ctx context.Context, method, path, token string, payload interface{}) (*models.Product, error) {
	req, err := jsonRequest(method, path, token, payload)
	if err != nil {
		return nil, err
	}
	var data productData
	if err := c.call(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data.Product, nil
}

// CreateProductWithImages sends the product fields as form values and the
// files under "images".
func (c *Client) CreateProductWithImages(ctx context.Context, token string, input *models.ProductInput, images []models.ImageUpload) (*models.Product, error) {
	body, contentType, err := buildMultipart(func(w *multipart.Writer) error {
		if err := writeProductFields(w, input); err != nil {
			return err
		}
		return writeImages(w, images)
	})
	if err != nil {
		return nil, err
	}

	var data productData
	req := &request{method: http.MethodPost, path: "/products", token: token, body: body, contentType: contentType}
	if err := c.call(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data.Product, nil
}

// UpdateProductImages keeps the listed existing image paths and uploads the
// new files. Passing no existing paths replaces every image.
func (c *Client) UpdateProductImages(ctx context.Context, token, id string, newImages []models.ImageUpload, existing []string) (*models.Product, error) {
	body, contentType, err := buildMultipart(func(w *multipart.Writer) error {
		for _, path := range existing {
			if err := w.WriteField("existingImages", path); err != nil {
				return err
			}
		}
		return writeImages(w, newImages)
	})
	if err != nil {
		return nil, err
	}

	var data productData
	req := &request{method: http.MethodPatch, path: productPath(id) + "/images", token: token, body: body, contentType: contentType}
	if err := c.call(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data.Product, nil
}

func buildMultipart(write func(w *multipart.Writer) error) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := write(w); err != nil {
		return nil, "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// writeProductFields mirrors how a browser form posts the product: one field
// per set value, null values omitted.
func writeProductFields(w *multipart.Writer, p *models.ProductInput) error {
	fields := [][2]string{
		{"name", p.Name},
		{"description", p.Description},
		{"mainPrice", strconv.FormatFloat(p.MainPrice, 'f', -1, 64)},
		{"price", strconv.FormatFloat(p.Price, 'f', -1, 64)},
		{"category", string(p.Category)},
		{"stock", strconv.Itoa(p.Stock)},
		{"isFlashSale", strconv.FormatBool(p.IsFlashSale)},
		{"isActive", strconv.FormatBool(p.IsActive)},
	}
	if p.SubCategory != nil {
		fields = append(fields, [2]string{"subCategory", string(*p.SubCategory)})
	}
	if p.Gender != nil {
		fields = append(fields, [2]string{"gender", string(*p.Gender)})
	}
	if p.Rating > 0 {
		fields = append(fields, [2]string{"rating", strconv.FormatFloat(p.Rating, 'f', -1, 64)})
	}
	if len(p.Sizes) > 0 {
		fields = append(fields, [2]string{"sizes", strings.Join(p.Sizes, ",")})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeImages(w *multipart.Writer, images []models.ImageUpload) error {
	for _, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Filename))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(img.Data); err != nil {
			return err
		}
	}
	return nil
}
