package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"ihfiction/app/server/constants"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Admin 身份提供方管理接口的轻量封装，目前只用于 realm 角色的授予与回收
type Admin struct {
	l     *zap.Logger
	hc    *http.Client
	cache TokenCache

	baseURL      string
	realm        string
	clientID     string
	clientSecret string
}

func NewAdmin(l *zap.Logger, cache TokenCache, baseURL string, realm string, clientID string, clientSecret string) *Admin {
	return &Admin{
		l:            l,
		hc:           &http.Client{Timeout: 10 * time.Second},
		cache:        cache,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type roleRepresentation struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// adminToken 获取管理令牌，优先走缓存；缓存 TTL 在 expires_in 基础上预留余量
func (a *Admin) adminToken(ctx context.Context) (string, error) {
	// 查询缓存
	if token, err := a.cache.GetToken(ctx, a.clientID); err != nil {
		a.l.Error("failed to query cache for admin token", zap.Error(err))
	} else if token != "" {
		return token, nil
	}

	// 请求新令牌
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	endpoint := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", a.baseURL, a.realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	// 加入缓存，方便下一次查询
	ttl := time.Duration(tr.ExpiresIn)*time.Second - constants.AdminTokenSafetyMargin
	if ttl > 0 {
		if err = a.cache.SetToken(ctx, a.clientID, tr.AccessToken, ttl); err != nil {
			a.l.Error("failed to cache admin token", zap.Error(err))
		}
	}

	return tr.AccessToken, nil
}

// roleID 解析 realm 角色名到角色 ID ，结果进缓存
func (a *Admin) roleID(ctx context.Context, role string) (uuid.UUID, error) {
	// 查询缓存
	if cached, err := a.cache.GetRoleID(ctx, role); err != nil {
		a.l.Error("failed to query cache for role id", zap.String("role", role), zap.Error(err))
	} else if cached != "" {
		if id, err := uuid.Parse(cached); err == nil {
			return id, nil
		}
	}

	var rr roleRepresentation
	endpoint := fmt.Sprintf("%s/admin/realms/%s/roles/%s", a.baseURL, a.realm, url.PathEscape(role))
	if err := a.doJSON(ctx, http.MethodGet, endpoint, nil, &rr); err != nil {
		return uuid.Nil, fmt.Errorf("resolve role %q: %w", role, err)
	}

	// 加入缓存，方便下一次查询
	if err := a.cache.SetRoleID(ctx, role, rr.ID.String()); err != nil {
		a.l.Error("failed to cache role id", zap.String("role", role), zap.Error(err))
	}

	return rr.ID, nil
}

// AssignRealmRole 给用户授予 realm 角色；用户以身份提供方的 subject 标识
func (a *Admin) AssignRealmRole(ctx context.Context, subject string, role string) error {
	id, err := a.roleID(ctx, role)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/admin/realms/%s/users/%s/role-mappings/realm", a.baseURL, a.realm, url.PathEscape(subject))
	return a.doJSON(ctx, http.MethodPost, endpoint, []roleRepresentation{{ID: id, Name: role}}, nil)
}

// RemoveRealmRole 回收用户的 realm 角色
func (a *Admin) RemoveRealmRole(ctx context.Context, subject string, role string) error {
	id, err := a.roleID(ctx, role)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/admin/realms/%s/users/%s/role-mappings/realm", a.baseURL, a.realm, url.PathEscape(subject))
	return a.doJSON(ctx, http.MethodDelete, endpoint, []roleRepresentation{{ID: id, Name: role}}, nil)
}

func (a *Admin) doJSON(ctx context.Context, method string, endpoint string, reqBody any, resBody any) error {
	token, err := a.adminToken(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request admin api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("admin api returned %d: %s", resp.StatusCode, raw)
	}

	if resBody != nil {
		if err = json.NewDecoder(resp.Body).Decode(resBody); err != nil {
			return fmt.Errorf("decode admin api response: %w", err)
		}
	}

	return nil
}
