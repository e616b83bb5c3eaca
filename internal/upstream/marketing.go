package upstream

import (
	"context"
	"net/http"
	"strings"
)

// ContactInput 联系表单
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Subscribe POST /newsletter。
// 成功与业务失败都会返回后端提示信息，业务失败时 err 为 *BackendError
func (c *Client) Subscribe(ctx context.Context, email string) (string, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/newsletter", requestOptions{body: map[string]string{
		"email": strings.TrimSpace(email),
	}})
	if err != nil {
		return BackendMessage(err), err
	}
	return strings.TrimSpace(envelope.Message), nil
}

// SubmitContact POST /contacts
func (c *Client) SubmitContact(ctx context.Context, input ContactInput) (string, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/contacts", requestOptions{body: input})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(envelope.Message), nil
}
