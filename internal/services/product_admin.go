package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/sirupsen/logrus"
)

// ProductBackend is the admin side of the catalog gateway.
type ProductBackend interface {
	CreateProduct(ctx context.Context, token string, input *models.ProductInput) (*models.Product, error)
	CreateProductWithImages(ctx context.Context, token string, input *models.ProductInput, images []models.ImageUpload) (*models.Product, error)
	UpdateProduct(ctx context.Context, token, id string, update *models.ProductUpdate) (*models.Product, error)
	UpdateProductImages(ctx context.Context, token, id string, newImages []models.ImageUpload, existing []string) (*models.Product, error)
	UpdateStock(ctx context.Context, token, id string, quantity int) (*models.Product, error)
	SoftDeleteProduct(ctx context.Context, token, id string) error
	HardDeleteProduct(ctx context.Context, token, id string) error
	InvalidateCache(ctx context.Context) error
}

// ProductEventPublisher announces catalog changes to peer instances.
type ProductEventPublisher interface {
	PublishProductChanged(productID, action string) error
}

const (
	ProductActionCreated       = "created"
	ProductActionUpdated       = "updated"
	ProductActionImagesUpdated = "images_updated"
	ProductActionStockUpdated  = "stock_updated"
	ProductActionDeactivated   = "deactivated"
	ProductActionDeleted       = "deleted"
)

// ProductAdminService validates admin catalog edits before forwarding them
// to the backend, then drops cached reads and announces the change.
type ProductAdminService struct {
	backend ProductBackend
	events  ProductEventPublisher
	log     *logger.Logger
}

func NewProductAdminService(backend ProductBackend, events ProductEventPublisher, log *logger.Logger) *ProductAdminService {
	return &ProductAdminService{backend: backend, events: events, log: log}
}

// Create adds a product. Uploaded images take precedence over image URLs in
// input; one of the two must supply between 1 and 5 images.
func (s *ProductAdminService) Create(ctx context.Context, token string, input *models.ProductInput, images []models.ImageUpload) (*models.Product, error) {
	imageCount := len(input.Images)
	if len(images) > 0 {
		imageCount = len(images)
	}
	if err := ValidateProductInput(input, imageCount); err != nil {
		return nil, err
	}

	var (
		product *models.Product
		err     error
	)
	if len(images) > 0 {
		product, err = s.backend.CreateProductWithImages(ctx, token, input, images)
	} else {
		product, err = s.backend.CreateProduct(ctx, token, input)
	}
	if err != nil {
		return nil, err
	}

	s.changed(ctx, product.ID, ProductActionCreated)
	return product, nil
}

func (s *ProductAdminService) Update(ctx context.Context, token, id string, update *models.ProductUpdate) (*models.Product, error) {
	if err := ValidateProductUpdate(update); err != nil {
		return nil, err
	}
	product, err := s.backend.UpdateProduct(ctx, token, id, update)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, id, ProductActionUpdated)
	return product, nil
}

// UpdateImages replaces the product images with the kept URLs plus uploads.
func (s *ProductAdminService) UpdateImages(ctx context.Context, token, id string, newImages []models.ImageUpload, existing []string) (*models.Product, error) {
	if total := len(newImages) + len(existing); total < 1 || total > models.MaxProductImages {
		return nil, apperror.Validation(fmt.Sprintf("Product must have between 1 and %d images", models.MaxProductImages), nil)
	}
	product, err := s.backend.UpdateProductImages(ctx, token, id, newImages, existing)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, id, ProductActionImagesUpdated)
	return product, nil
}

func (s *ProductAdminService) UpdateStock(ctx context.Context, token, id string, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, apperror.Validation("Stock cannot be negative", nil)
	}
	product, err := s.backend.UpdateStock(ctx, token, id, quantity)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, id, ProductActionStockUpdated)
	return product, nil
}

// Delete deactivates the product, or removes it for good when hard is set.
func (s *ProductAdminService) Delete(ctx context.Context, token, id string, hard bool) error {
	action := ProductActionDeactivated
	var err error
	if hard {
		action = ProductActionDeleted
		err = s.backend.HardDeleteProduct(ctx, token, id)
	} else {
		err = s.backend.SoftDeleteProduct(ctx, token, id)
	}
	if err != nil {
		return err
	}
	s.changed(ctx, id, action)
	return nil
}

func (s *ProductAdminService) changed(ctx context.Context, id, action string) {
	entry := s.log.WithFields(logrus.Fields{"product_id": id, "action": action})
	if err := s.backend.InvalidateCache(ctx); err != nil {
		entry.WithError(err).Warn("Failed to invalidate catalog cache")
	}
	if err := s.events.PublishProductChanged(id, action); err != nil {
		entry.WithError(err).Error("Failed to publish product changed event")
	}
	entry.Info("Product changed")
}

// ValidateProductInput applies the backend's product rules locally so admins
// get field errors without a round trip.
func ValidateProductInput(p *models.ProductInput, imageCount int) error {
	if p == nil {
		return apperror.Validation("Product data is required", nil)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)

	if err := validateName(p.Name); err != nil {
		return err
	}
	if err := validateDescription(p.Description); err != nil {
		return err
	}
	if p.MainPrice < 0 {
		return apperror.Validation("Original price cannot be negative", nil)
	}
	if p.Price < 0 {
		return apperror.Validation("Selling price cannot be negative", nil)
	}
	if err := validateCategory(p.Category); err != nil {
		return err
	}
	if err := validateSubCategory(p.SubCategory); err != nil {
		return err
	}
	if err := validateGender(p.Gender); err != nil {
		return err
	}
	if p.Stock < 0 {
		return apperror.Validation("Stock cannot be negative", nil)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return apperror.Validation("Rating must be between 0 and 5", nil)
	}
	if err := validateSizes(p.Sizes); err != nil {
		return err
	}
	if imageCount < 1 {
		return apperror.Validation("Product must have at least 1 image", nil)
	}
	if imageCount > models.MaxProductImages {
		return apperror.Validation(fmt.Sprintf("Product can have maximum %d images", models.MaxProductImages), nil)
	}
	return nil
}

// ValidateProductUpdate checks only the fields present in u.
func ValidateProductUpdate(u *models.ProductUpdate) error {
	if u == nil {
		return apperror.Validation("Product data is required", nil)
	}
	if u.Name != nil {
		*u.Name = strings.TrimSpace(*u.Name)
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	if u.Description != nil {
		*u.Description = strings.TrimSpace(*u.Description)
		if err := validateDescription(*u.Description); err != nil {
			return err
		}
	}
	if u.MainPrice != nil && *u.MainPrice < 0 {
		return apperror.Validation("Original price cannot be negative", nil)
	}
	if u.Price != nil && *u.Price < 0 {
		return apperror.Validation("Selling price cannot be negative", nil)
	}
	if u.Category != nil {
		if err := validateCategory(*u.Category); err != nil {
			return err
		}
	}
	if err := validateSubCategory(u.SubCategory); err != nil {
		return err
	}
	if err := validateGender(u.Gender); err != nil {
		return err
	}
	if u.Stock != nil && *u.Stock < 0 {
		return apperror.Validation("Stock cannot be negative", nil)
	}
	if u.Rating != nil && (*u.Rating < 0 || *u.Rating > 5) {
		return apperror.Validation("Rating must be between 0 and 5", nil)
	}
	if len(u.Images) > models.MaxProductImages {
		return apperror.Validation(fmt.Sprintf("Product can have maximum %d images", models.MaxProductImages), nil)
	}
	return validateSizes(u.Sizes)
}

func validateName(name string) error {
	if name == "" {
		return apperror.Validation("Product name is required", nil)
	}
	if utf8.RuneCountInString(name) > models.MaxNameLength {
		return apperror.Validation(fmt.Sprintf("Product name cannot exceed %d characters", models.MaxNameLength), nil)
	}
	return nil
}

func validateDescription(desc string) error {
	if desc == "" {
		return apperror.Validation("Product description is required", nil)
	}
	if utf8.RuneCountInString(desc) > models.MaxDescriptionSize {
		return apperror.Validation(fmt.Sprintf("Description cannot exceed %d characters", models.MaxDescriptionSize), nil)
	}
	return nil
}

func validateCategory(c models.Category) error {
	for _, known := range models.Categories {
		if c == known {
			return nil
		}
	}
	return apperror.Validation("Category must be one of: electronics, fashion, beauty, accessories, home", nil)
}

func validateSubCategory(sc *models.SubCategory) error {
	if sc == nil {
		return nil
	}
	switch *sc {
	case models.SubCategoryGents, models.SubCategoryLadies:
		return nil
	}
	return apperror.Validation("Sub-category must be one of: gents, ladies", nil)
}

func validateGender(g *models.Gender) error {
	if g == nil {
		return nil
	}
	switch *g {
	case models.GenderGents, models.GenderLadies, models.GenderUnisex:
		return nil
	}
	return apperror.Validation("Gender must be one of: gents, ladies, unisex", nil)
}

func validateSizes(sizes []string) error {
	for _, size := range sizes {
		if !containsString(models.Sizes, size) {
			return apperror.Validation("Invalid size. Must be one of: "+strings.Join(models.Sizes, ", "), nil)
		}
	}
	return nil
}
