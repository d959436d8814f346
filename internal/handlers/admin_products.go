package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"storefront/internal/logger"
	"storefront/internal/models"
)

const (
	maxUploadMemory = 32 << 20
	maxImageSize    = 5 << 20

	formProduct        = "product"
	formImages         = "images"
	formExistingImages = "existingImages"
)

// AdminProductHandler edits the catalog. Admin only.
type AdminProductHandler struct {
	admin ProductAdmin
	log   *logger.Logger
}

func NewAdminProductHandler(admin ProductAdmin, log *logger.Logger) *AdminProductHandler {
	return &AdminProductHandler{admin: admin, log: log}
}

// CreateProduct accepts either a JSON ProductInput with image URLs, or a
// multipart form with the JSON in the "product" field and files in "images".
func (h *AdminProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var (
		input  models.ProductInput
		images []models.ImageUpload
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue(formProduct)), &input); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid product data")
			return
		}
		var err error
		if images, err = readImages(r.MultipartForm); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.admin.Create(r.Context(), token(r), &input, images)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create product")
		return
	}
	writeJSONResponse(w, http.StatusCreated, product)
}

func (h *AdminProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPut) {
		return
	}

	var update models.ProductUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.admin.Update(r.Context(), token(r), r.PathValue("id"), &update)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update product")
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

// UpdateImages replaces the image set: kept URLs come as repeated
// "existingImages" fields, new files as "images".
func (h *AdminProductHandler) UpdateImages(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPut) {
		return
	}
	if !isMultipart(r) {
		writeErrorResponse(w, http.StatusUnsupportedMediaType, "Expected multipart/form-data")
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	images, err := readImages(r.MultipartForm)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	existing := r.MultipartForm.Value[formExistingImages]

	product, err := h.admin.UpdateImages(r.Context(), token(r), r.PathValue("id"), images, existing)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update product images")
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

func (h *AdminProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPatch) {
		return
	}

	var req models.StockUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.admin.UpdateStock(r.Context(), token(r), r.PathValue("id"), req.Quantity)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update stock")
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

// DeleteProduct deactivates the product; ?hard=true removes it for good.
func (h *AdminProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}

	hard := false
	if raw := r.URL.Query().Get("hard"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "invalid hard parameter")
			return
		}
		hard = v
	}

	if err := h.admin.Delete(r.Context(), token(r), r.PathValue("id"), hard); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to delete product")
		return
	}

	message := "Product deactivated"
	if hard {
		message = "Product deleted"
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: message})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func readImages(form *multipart.Form) ([]models.ImageUpload, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[formImages]
	if len(headers) > models.MaxProductImages {
		return nil, fmt.Errorf("maximum %d images allowed", models.MaxProductImages)
	}

	images := make([]models.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageSize {
			return nil, fmt.Errorf("image %s is larger than 5MB", fh.Filename)
		}
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) (models.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.ImageUpload{}, fmt.Errorf("failed to read image %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.ImageUpload{}, fmt.Errorf("failed to read image %s", fh.Filename)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return models.ImageUpload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}
