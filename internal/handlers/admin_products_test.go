package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/apperror"
	"storefront/internal/models"
)

type stubProductAdmin struct {
	product *models.Product
	err     error

	lastToken    string
	lastID       string
	lastInput    *models.ProductInput
	lastUpdate   *models.ProductUpdate
	lastImages   []models.ImageUpload
	lastExisting []string
	lastQuantity int
	lastHard     bool
}

func (s *stubProductAdmin) Create(_ context.Context, token string, input *models.ProductInput, images []models.ImageUpload) (*models.Product, error) {
	s.lastToken, s.lastInput, s.lastImages = token, input, images
	return s.product, s.err
}
func (s *stubProductAdmin) Update(_ context.Context, token, id string, update *models.ProductUpdate) (*models.Product, error) {
	s.lastToken, s.lastID, s.lastUpdate = token, id, update
	return s.product, s.err
}
func (s *stubProductAdmin) UpdateImages(_ context.Context, token, id string, images []models.ImageUpload, existing []string) (*models.Product, error) {
	s.lastToken, s.lastID, s.lastImages, s.lastExisting = token, id, images, existing
	return s.product, s.err
}
func (s *stubProductAdmin) UpdateStock(_ context.Context, token, id string, quantity int) (*models.Product, error) {
	s.lastToken, s.lastID, s.lastQuantity = token, id, quantity
	return s.product, s.err
}
func (s *stubProductAdmin) Delete(_ context.Context, token, id string, hard bool) error {
	s.lastToken, s.lastID, s.lastHard = token, id, hard
	return s.err
}

func multipartBody(t *testing.T, fields map[string][]string, files int) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for name, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(name, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	for i := 0; i < files; i++ {
		fw, err := mw.CreateFormFile(formImages, fmt.Sprintf("img%d.png", i))
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestAdminProductHandler_CreateJSON(t *testing.T) {
	admin := &stubProductAdmin{product: &models.Product{ID: "new"}}
	h := NewAdminProductHandler(admin, testLogger())

	body := `{"name":"Lamp","description":"Warm light","mainPrice":50,"price":40,"images":["https://img/1.png"],"category":"home","stock":3,"isActive":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr, _ := serve(t, RequireAdmin(testLogger(), h.CreateProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if admin.lastToken != "tok" || admin.lastInput.Name != "Lamp" || len(admin.lastImages) != 0 {
		t.Fatalf("unexpected create call: %+v", admin)
	}
}

func TestAdminProductHandler_CreateMultipart(t *testing.T) {
	admin := &stubProductAdmin{product: &models.Product{ID: "new"}}
	h := NewAdminProductHandler(admin, testLogger())

	body, contentType := multipartBody(t, map[string][]string{
		formProduct: {`{"name":"Lamp","description":"Warm","mainPrice":50,"price":40,"category":"home","stock":1}`},
	}, 2)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rr, _ := serve(t, RequireAdmin(testLogger(), h.CreateProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(admin.lastImages) != 2 || admin.lastImages[0].Filename != "img0.png" || len(admin.lastImages[0].Data) == 0 {
		t.Fatalf("expected uploaded images forwarded, got %+v", admin.lastImages)
	}
}

func TestAdminProductHandler_CreateMultipart_TooManyImages(t *testing.T) {
	h := NewAdminProductHandler(&stubProductAdmin{}, testLogger())
	body, contentType := multipartBody(t, map[string][]string{formProduct: {`{"name":"x"}`}}, models.MaxProductImages+1)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", body)
	req.Header.Set("Content-Type", contentType)
	rr, _ := serve(t, RequireAdmin(testLogger(), h.CreateProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminProductHandler_CreateValidationError(t *testing.T) {
	h := NewAdminProductHandler(&stubProductAdmin{err: apperror.Validation("Product name is required", nil)}, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewBufferString(`{}`))
	rr, _ := serve(t, RequireAdmin(testLogger(), h.CreateProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminProductHandler_ShopperForbidden(t *testing.T) {
	admin := &stubProductAdmin{}
	h := NewAdminProductHandler(admin, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewBufferString(`{}`))
	rr, _ := serve(t, RequireAdmin(testLogger(), h.CreateProduct), req, signedIn(models.RoleUser))
	if rr.Code != http.StatusForbidden || admin.lastInput != nil {
		t.Fatalf("expected 403 without reaching the service, got %d", rr.Code)
	}
}

func TestAdminProductHandler_UpdateImages(t *testing.T) {
	admin := &stubProductAdmin{product: &models.Product{ID: "p1"}}
	h := NewAdminProductHandler(admin, testLogger())

	body, contentType := multipartBody(t, map[string][]string{
		formExistingImages: {"https://img/a.png", "https://img/b.png"},
	}, 1)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/p1/images", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "p1")
	rr, _ := serve(t, RequireAdmin(testLogger(), h.UpdateImages), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if admin.lastID != "p1" || len(admin.lastExisting) != 2 || len(admin.lastImages) != 1 {
		t.Fatalf("unexpected images call: %+v", admin)
	}
}

func TestAdminProductHandler_UpdateImages_RequiresMultipart(t *testing.T) {
	h := NewAdminProductHandler(&stubProductAdmin{}, testLogger())
	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/p1/images", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr, _ := serve(t, RequireAdmin(testLogger(), h.UpdateImages), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestAdminProductHandler_UpdateAndStock(t *testing.T) {
	admin := &stubProductAdmin{product: &models.Product{ID: "p1"}}
	h := NewAdminProductHandler(admin, testLogger())

	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/p1", bytes.NewBufferString(`{"price":19.99}`))
	req.SetPathValue("id", "p1")
	rr, _ := serve(t, RequireAdmin(testLogger(), h.UpdateProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusOK || admin.lastUpdate.Price == nil || *admin.lastUpdate.Price != 19.99 {
		t.Fatalf("unexpected update: %d %+v", rr.Code, admin.lastUpdate)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/admin/products/p1/stock", bytes.NewBufferString(`{"quantity":12}`))
	req.SetPathValue("id", "p1")
	rr, _ = serve(t, RequireAdmin(testLogger(), h.UpdateStock), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusOK || admin.lastQuantity != 12 {
		t.Fatalf("unexpected stock update: %d %d", rr.Code, admin.lastQuantity)
	}
}

func TestAdminProductHandler_Delete(t *testing.T) {
	admin := &stubProductAdmin{}
	h := NewAdminProductHandler(admin, testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/p1", nil)
	req.SetPathValue("id", "p1")
	rr, _ := serve(t, RequireAdmin(testLogger(), h.DeleteProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusOK || admin.lastHard {
		t.Fatalf("expected soft delete, got %d hard=%v", rr.Code, admin.lastHard)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/products/p1?hard=true", nil)
	req.SetPathValue("id", "p1")
	rr, _ = serve(t, RequireAdmin(testLogger(), h.DeleteProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusOK || !admin.lastHard {
		t.Fatalf("expected hard delete, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/products/p1?hard=maybe", nil)
	req.SetPathValue("id", "p1")
	rr, _ = serve(t, RequireAdmin(testLogger(), h.DeleteProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hard flag, got %d", rr.Code)
	}
}

func TestAdminProductHandler_BackendForbidden(t *testing.T) {
	h := NewAdminProductHandler(&stubProductAdmin{err: apperror.Forbidden("Admin role required", nil)}, testLogger())
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/p1", nil)
	req.SetPathValue("id", "p1")
	rr, _ := serve(t, RequireAdmin(testLogger(), h.DeleteProduct), req, signedIn(models.RoleAdmin))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
