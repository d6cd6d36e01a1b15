package api

import (
	"context"
	"fmt"
	"net/http"

	"assemblatojira/config"
)

// AssemblaClient はAssemblaから添付ファイルをダウンロードします
type AssemblaClient struct {
	config *config.Config
	client *http.Client
}

// NewAssemblaClient は新しいダウンロードクライアントを作成します
func NewAssemblaClient(cfg *config.Config) *AssemblaClient {
	return &AssemblaClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.JiraAPITimeout},
	}
}

// Download は指定URLの内容を取得します。
// Assembla APIキーが設定されていればAPIヘッダー、なければ管理者のBasic認証を使います
func (a *AssemblaClient) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	if a.config.AssemblaAPIKey != "" {
		req.Header.Set("X-Api-Key", a.config.AssemblaAPIKey)
		req.Header.Set("X-Api-Secret", a.config.AssemblaAPISecret)
	} else if a.config.JiraAPIAdminUser != "" {
		req.SetBasicAuth(a.config.JiraAPIAdminUser, a.config.JiraAPIAdminPassword)
	}

	return execute(a.client, req)
}
