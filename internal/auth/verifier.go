// Package auth 提供呼叫者身分驗證。核心流程只把驗證後的 subject
// 當作不透明的擁有者鍵使用，不擁有任何身分記錄。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"google.golang.org/api/idtoken"
)

// ErrUnauthenticated 表示無法驗證呼叫者身分
var ErrUnauthenticated = errors.New("身分驗證失敗")

// Identity 是驗證後的呼叫者身分
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// TokenVerifier 介面定義了身分權杖的驗證操作
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// GoogleVerifier 以 Google ID Token 驗證呼叫者
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier 建立 GoogleVerifier 實例
func NewGoogleVerifier(clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("Google Client ID 不得為空")
	}
	log.Println("資訊：[Auth] Google ID Token 驗證器初始化成功。")
	return &GoogleVerifier{clientID: clientID}, nil
}

// Verify 驗證 ID Token 並回傳呼叫者身分
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: 缺少權杖", ErrUnauthenticated)
	}
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	ident := &Identity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		ident.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		ident.Name = name
	}
	return ident, nil
}
