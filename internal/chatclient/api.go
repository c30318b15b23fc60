package chatclient

import (
	"context"
	"duochat/backend/internal/models"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
)

type apiError struct {
	Error string `json:"error"`
}

// APIClient talks to the REST side of the server. After Login it carries the
// session token on every request.
type APIClient struct {
	http  *resty.Client
	token string
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{http: resty.New().SetBaseURL(baseURL)}
}

// Token returns the session token obtained by Login or Signup.
func (c *APIClient) Token() string { return c.token }

func (c *APIClient) SetToken(token string) {
	c.token = token
	c.http.SetAuthToken(token)
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *APIClient) Signup(ctx context.Context, fullName, email, password string) (*models.User, error) {
	return c.authenticate(ctx, "/api/auth/signup", map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
	})
}

func (c *APIClient) authenticate(ctx context.Context, path string, body any) (*models.User, error) {
	var user models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&user).
		SetError(&apiError{}).
		Post(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}

	token := resp.Header().Get("X-Auth-Token")
	if token == "" {
		for _, ck := range resp.Cookies() {
			if ck.Name == "jwt" {
				token = ck.Value
			}
		}
	}
	if token == "" {
		return nil, fmt.Errorf("%s: no session token in response", path)
	}
	c.SetToken(token)
	return &user, nil
}

// Users lists every other user.
func (c *APIClient) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	resp, err := c.http.R().SetContext(ctx).SetResult(&users).SetError(&apiError{}).Get("/api/messages/users")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return users, nil
}

// History implements HistoryFetcher.
func (c *APIClient) History(ctx context.Context, peerID string) ([]models.Message, error) {
	var history []models.Message
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&history).
		SetError(&apiError{}).
		Get("/api/messages/" + url.PathEscape(peerID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return history, nil
}

// Send posts a message and returns it as stored by the server.
func (c *APIClient) Send(ctx context.Context, peerID, text, image string) (*models.Message, error) {
	var msg models.Message
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text, "image": image}).
		SetResult(&msg).
		SetError(&apiError{}).
		Post("/api/messages/send/" + url.PathEscape(peerID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &msg, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			return fmt.Errorf("%s %s: %d %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), e.Error)
		}
		return fmt.Errorf("%s %s: %d", resp.Request.Method, resp.Request.URL, resp.StatusCode())
	}
	return nil
}
