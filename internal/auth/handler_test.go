package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubVerifier struct {
	user *GoogleUser
	err  error
}

func (s *stubVerifier) Verify(ctx context.Context, idToken string) (*GoogleUser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubUpserter struct {
	user *User
	err  error
	got  GoogleUser
}

func (s *stubUpserter) UpsertGoogleUser(ctx context.Context, gu GoogleUser) (*User, error) {
	s.got = gu
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func TestGoogleSignInSuccess(t *testing.T) {
	verifier := &stubVerifier{user: &GoogleUser{GoogleID: "g-1", Email: "pat@example.com", Name: "Pat Example", Picture: "https://example.com/p.png"}}
	store := &stubUpserter{user: &User{ID: 42, Email: "pat@example.com", Name: "Pat Example", Picture: "https://example.com/p.png", CreatedAt: time.Now()}}
	issuer := NewTokenIssuer("test-secret", time.Hour)
	handler := NewHandler(verifier, store, issuer, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"google-id-token"}`))
	rec := httptest.NewRecorder()
	handler.GoogleSignIn(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID         int64  `json:"id"`
			Email      string `json:"email"`
			Name       string `json:"name"`
			PictureURL string `json:"pictureUrl"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a session token in the response")
	}
	if resp.User.ID != 42 || resp.User.Email != "pat@example.com" || resp.User.PictureURL == "" {
		t.Errorf("unexpected user payload: %+v", resp.User)
	}
	if store.got.GoogleID != "g-1" {
		t.Errorf("upserted google id = %q, want %q", store.got.GoogleID, "g-1")
	}

	claims, err := issuer.parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("token subject = %q, want %q", claims.Subject, "42")
	}
}

func TestGoogleSignInRejectsInvalidToken(t *testing.T) {
	handler := NewHandler(&stubVerifier{err: ErrInvalidToken}, &stubUpserter{}, NewTokenIssuer("test-secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"bad"}`))
	rec := httptest.NewRecorder()
	handler.GoogleSignIn(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGoogleSignInValidation(t *testing.T) {
	handler := NewHandler(&stubVerifier{}, &stubUpserter{}, NewTokenIssuer("test-secret", time.Hour), nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{}`},
		{"blank token", `{"token":"  "}`},
		{"malformed json", `{token`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.GoogleSignIn(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGoogleSignInStoreFailure(t *testing.T) {
	verifier := &stubVerifier{user: &GoogleUser{GoogleID: "g-1", Email: "pat@example.com"}}
	handler := NewHandler(verifier, &stubUpserter{err: errors.New("db down")}, NewTokenIssuer("test-secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"google-id-token"}`))
	rec := httptest.NewRecorder()
	handler.GoogleSignIn(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestGoogleSignInNotConfigured(t *testing.T) {
	handler := NewHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", strings.NewReader(`{"token":"google-id-token"}`))
	rec := httptest.NewRecorder()
	handler.GoogleSignIn(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
