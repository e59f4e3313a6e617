package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/language"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// ErrUnauthenticated reports a request without a usable bearer token.
var ErrUnauthenticated = errors.New("httpapi: missing or invalid bearer token")

// ViewerFunc resolves the viewer of a request.
type ViewerFunc func(r *http.Request) (dashboard.ViewerContext, error)

// JWTViewerResolver reads the viewer from an HMAC signed bearer token. The subject becomes
// the user id; permissions and locale come from their claims.
type JWTViewerResolver struct {
	Secret           []byte
	PermissionsClaim string
	LocaleClaim      string
}

// Resolve implements ViewerFunc.
func (j JWTViewerResolver) Resolve(r *http.Request) (dashboard.ViewerContext, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return dashboard.ViewerContext{}, ErrUnauthenticated
	}
	viewer, err := j.ViewerFromToken(strings.TrimSpace(raw))
	if err != nil {
		return dashboard.ViewerContext{}, err
	}
	if viewer.Locale == "" {
		viewer.Locale = ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	}
	return viewer, nil
}

// ViewerFromToken validates raw and extracts the viewer.
func (j JWTViewerResolver) ViewerFromToken(raw string) (dashboard.ViewerContext, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil || !token.Valid {
		return dashboard.ViewerContext{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return dashboard.ViewerContext{}, ErrUnauthenticated
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return dashboard.ViewerContext{}, ErrUnauthenticated
	}
	viewer := dashboard.ViewerContext{UserID: subject}
	viewer.Permissions = stringList(claims[j.permissionsClaim()])
	if locale, ok := claims[j.localeClaim()].(string); ok {
		viewer.Locale = strings.ToLower(locale)
	}
	return viewer, nil
}

func (j JWTViewerResolver) permissionsClaim() string {
	if j.PermissionsClaim == "" {
		return "permissions"
	}
	return j.PermissionsClaim
}

func (j JWTViewerResolver) localeClaim() string {
	if j.LocaleClaim == "" {
		return "locale"
	}
	return j.LocaleClaim
}

func stringList(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case string:
		return strings.Fields(v)
	default:
		return nil
	}
}

// ParseAcceptLanguage returns the preferred tag of an Accept-Language header, lowercased.
// Malformed or wildcard headers yield "".
func ParseAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return ""
	}
	return strings.ToLower(tags[0].String())
}
