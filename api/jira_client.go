package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"assemblatojira/config"
	"assemblatojira/models"
)

// Credentials はBasic認証に使うユーザー名とパスワードです
type Credentials struct {
	Username string
	Password string
}

// JiraClient はJIRA APIとのやり取りを処理します
type JiraClient struct {
	config *config.Config
	client *http.Client
}

// NewJiraClient は新しいJIRAクライアントを作成します
func NewJiraClient(cfg *config.Config) *JiraClient {
	return &JiraClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.JiraAPITimeout},
	}
}

// AdminCredentials は管理者の認証情報を返します
func (j *JiraClient) AdminCredentials() Credentials {
	return Credentials{Username: j.config.JiraAPIAdminUser, Password: j.config.JiraAPIAdminPassword}
}

var loginDomain = regexp.MustCompile(`@.*$`)

// UserCredentials はユーザーごとの認証情報を作成します。
// cloud の場合はメールアドレスとAPIキー、hosted の場合はログイン名を使います
func (j *JiraClient) UserCredentials(login, email string) Credentials {
	login = loginDomain.ReplaceAllString(login, "")
	if login == "" {
		return j.AdminCredentials()
	}
	if j.config.IsCloud() {
		if email == "" {
			return j.AdminCredentials()
		}
		return Credentials{Username: email, Password: j.config.JiraAPIKey}
	}
	password := j.config.JiraAPIUserPassword
	if password == "" {
		password = login
	}
	return Credentials{Username: login, Password: password}
}

func (j *JiraClient) issuesURL(issueID string, parts ...string) string {
	u := fmt.Sprintf("%s/rest/api/2/issue/%s", j.config.JiraAPIBase, url.PathEscape(issueID))
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// CheckAuth はJIRA認証をチェックします
func (j *JiraClient) CheckAuth(ctx context.Context) error {
	u := fmt.Sprintf("%s/rest/api/2/myself", j.config.JiraAPIBase)
	_, err := j.doRequest(ctx, http.MethodGet, u, nil, "", j.AdminCredentials())
	return err
}

// GetTransitions はイシューの利用可能なトランジションを取得します
func (j *JiraClient) GetTransitions(ctx context.Context, issueID string, creds Credentials) ([]models.Transition, error) {
	body, err := j.doRequest(ctx, http.MethodGet, j.issuesURL(issueID, "transitions"), nil, "", creds)
	if err != nil {
		return nil, err
	}

	var result struct {
		Transitions []models.Transition `json:"transitions"`
	}
	if err := decodeJSON(body, &result); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	return result.Transitions, nil
}

// TransitionIssue はイシューにトランジションを適用します
func (j *JiraClient) TransitionIssue(ctx context.Context, issueID, transitionID string, creds Credentials) error {
	payload := map[string]interface{}{
		"update": map[string]interface{}{},
		"transition": map[string]string{
			"id": transitionID,
		},
	}
	return j.sendJSON(ctx, http.MethodPost, j.issuesURL(issueID, "transitions"), payload, creds)
}

// UpdateResolution はイシューの解決状況を設定します
func (j *JiraClient) UpdateResolution(ctx context.Context, issueID, resolutionID string, creds Credentials) error {
	payload := map[string]interface{}{
		"update": map[string]interface{}{},
		"fields": map[string]interface{}{
			"resolution": map[string]string{"id": resolutionID},
		},
	}
	return j.sendJSON(ctx, http.MethodPut, j.issuesURL(issueID), payload, creds)
}

// UploadAttachment はJIRAイシューに添付ファイルをアップロードし、作成された添付ファイルIDを返します
func (j *JiraClient) UploadAttachment(ctx context.Context, issueID, filePath string, creds Credentials) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("ファイルオープンエラー: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("multipartフォーム作成エラー: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("ファイルコピーエラー: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("writerクローズエラー: %w", err)
	}

	respBody, err := j.doRequest(ctx, http.MethodPost, j.issuesURL(issueID, "attachments"), body, writer.FormDataContentType(), creds)
	if err != nil {
		return "", err
	}

	var attachments []struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(respBody, &attachments); err != nil {
		return "", fmt.Errorf("レスポンス解析エラー: %w", err)
	}
	if len(attachments) == 0 {
		return "", fmt.Errorf("添付ファイルIDが見つかりません")
	}

	return attachments[0].ID, nil
}

func (j *JiraClient) sendJSON(ctx context.Context, method, u string, payload interface{}, creds Credentials) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	_, err = j.doRequest(ctx, method, u, bytes.NewReader(payloadBytes), "application/json", creds)
	return err
}

// doRequest は認証付きのリクエストを送信し、レスポンスボディを返します。
// 2xx 以外のステータスは APIError に変換されます
func (j *JiraClient) doRequest(ctx context.Context, method, u string, body io.Reader, contentType string, creds Credentials) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method == http.MethodPost && filepath.Base(req.URL.Path) == "attachments" {
		req.Header.Set("X-Atlassian-Token", "no-check")
	}

	return execute(j.client, req)
}

func execute(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &APIError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Message: "レスポンス読み込みエラー", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	return respBody, nil
}

func decodeJSON(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}
