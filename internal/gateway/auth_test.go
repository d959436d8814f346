package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"storefront/internal/apperror"
	"storefront/internal/models"
)

func TestLoginAndCurrentUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "a@example.com" || body["password"] != "secret" {
				t.Errorf("unexpected credentials %v", body)
			}
			if r.Header.Get("Authorization") != "" {
				t.Errorf("login must be anonymous")
			}
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"user":  map[string]string{"_id": "u1", "name": "Ann", "email": "a@example.com", "role": "admin"},
				"token": "jwt-token",
			})
		case "/api/v1/auth/me":
			if r.Header.Get("Authorization") != "Bearer jwt-token" {
				writeFailure(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"_id": "u1", "role": "admin"}})
		}
	}, false)
	ctx := context.Background()

	res, err := c.Login(ctx, "a@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token != "jwt-token" || !res.User.IsAdmin() {
		t.Fatalf("unexpected auth result %+v", res)
	}

	user, err := c.CurrentUser(ctx, res.Token)
	if err != nil || user.ID != "u1" {
		t.Fatalf("current user failed: %v %+v", err, user)
	}

	if _, err := c.CurrentUser(ctx, "stale"); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRegisterValidationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusBadRequest, "Email already registered")
	}, false)
	_, err := c.Register(context.Background(), &models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "x"})
	if !apperror.Is(err, apperror.KindValidation) || err.Error() != "Email already registered" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogoutIgnoresErrors(t *testing.T) {
	var called int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.StoreInt32(&called, 1)
		writeFailure(w, http.StatusInternalServerError, "boom")
	}, false)
	c.Logout(context.Background(), "tok")
	if atomic.LoadInt32(&called) != 1 {
		t.Fatalf("expected backend logout call")
	}
	c.Logout(context.Background(), "")
}

func TestProfileAndPassword(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/profile":
			if r.Method != http.MethodPatch {
				t.Errorf("expected PATCH, got %s", r.Method)
			}
			writeEnvelope(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"_id": "u1", "name": "New"}})
		case "/api/v1/auth/change-password":
			var body models.ChangePasswordRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.CurrentPassword != "old" || body.NewPassword != "new" {
				t.Errorf("unexpected body %+v", body)
			}
			writeEnvelope(w, http.StatusOK, map[string]string{"message": "Password updated"})
		}
	}, false)
	ctx := context.Background()

	user, err := c.UpdateProfile(ctx, "tok", &models.ProfileUpdate{Name: "New"})
	if err != nil || user.Name != "New" {
		t.Fatalf("update profile failed: %v %+v", err, user)
	}
	msg, err := c.ChangePassword(ctx, "tok", &models.ChangePasswordRequest{CurrentPassword: "old", NewPassword: "new"})
	if err != nil || msg != "Password updated" {
		t.Fatalf("change password failed: %v %q", err, msg)
	}
}
