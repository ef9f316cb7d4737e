package handlers

import (
	"StoryLift-api/internal/auth"
	"context"
	"log"
	"net/http"
	"strings"
)

type contextKey string

const ownerContextKey contextKey = "owner"

// AuthMiddleware 為每個請求解析呼叫者身分並放入 context。
// 啟用時驗證 Bearer 權杖；停用時以 X-Session-ID 作為匿名擁有者鍵，
// 讓每一次儲存層呼叫仍然是擁有者範圍的。
type AuthMiddleware struct {
	enabled  bool
	verifier auth.TokenVerifier
}

// NewAuthMiddleware 建立 AuthMiddleware 實例
func NewAuthMiddleware(enabled bool, verifier auth.TokenVerifier) *AuthMiddleware {
	if enabled && verifier == nil {
		log.Panicln("AuthMiddleware：啟用驗證時 TokenVerifier 不得為空")
	}
	return &AuthMiddleware{enabled: enabled, verifier: verifier}
}

// Wrap 以身分解析包裝下游 handler
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := m.resolveOwner(r)
		if err != nil {
			log.Printf("警告：[AuthMiddleware] 身分驗證失敗: %v", err)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "身分驗證失敗")
			return
		}
		ctx := context.WithValue(r.Context(), ownerContextKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveOwner 依設定取得擁有者鍵
func (m *AuthMiddleware) resolveOwner(r *http.Request) (string, error) {
	if !m.enabled {
		if sid := strings.TrimSpace(r.Header.Get("X-Session-ID")); sid != "" {
			return "anon_" + sid, nil
		}
		return "anonymous", nil
	}
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if header == "" || token == header {
		return "", auth.ErrUnauthenticated
	}
	ident, err := m.verifier.Verify(r.Context(), token)
	if err != nil {
		return "", err
	}
	return ident.Subject, nil
}

// OwnerFromContext 取出 middleware 放入的擁有者鍵
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerContextKey).(string)
	return owner
}
