package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type contextKey string

const (
	UIDKey     contextKey = "uid"
	NameKey    contextKey = "displayName"
	PictureKey contextKey = "photoURL"
)

var authClient *auth.Client

// SetAuthClient injects the verifier. Call once from main before the router
// starts serving.
func SetAuthClient(client *auth.Client) {
	authClient = client
}

// FirebaseAuthMiddleware validates Firebase ID tokens and puts the identity
// into the request context.
func FirebaseAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		if authClient == nil {
			respondWithError(w, http.StatusServiceUnavailable, "Auth not configured")
			return
		}

		decoded, err := authClient.VerifyIDToken(r.Context(), token)
		if err != nil {
			log.Printf("Token verification failed: %v", err)
			respondWithError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			return
		}

		ctx := context.WithValue(r.Context(), UIDKey, decoded.UID)
		if name, ok := decoded.Claims["name"].(string); ok {
			ctx = context.WithValue(ctx, NameKey, name)
		}
		if picture, ok := decoded.Claims["picture"].(string); ok {
			ctx = context.WithValue(ctx, PictureKey, picture)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUID extracts the authenticated user ID from context.
func GetUID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UIDKey).(string)
	return uid, ok
}

// GetDisplayName returns the token's name claim, if present.
func GetDisplayName(ctx context.Context) string {
	name, _ := ctx.Value(NameKey).(string)
	return name
}

// GetPhotoURL returns the token's picture claim, if present.
func GetPhotoURL(ctx context.Context) string {
	photo, _ := ctx.Value(PictureKey).(string)
	return photo
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": "%s"}`, message)))
}
