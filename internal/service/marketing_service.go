package service

import (
	"context"
	"strings"

	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/upstream"
)

// ContactRequest 联系表单请求
type ContactRequest struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
	Captcha CaptchaVerifyPayload
}

// MarketingService 订阅与联系表单
type MarketingService struct {
	backend MarketingBackend
	captcha *CaptchaService
}

// NewMarketingService 创建服务
func NewMarketingService(backend MarketingBackend, captcha *CaptchaService) *MarketingService {
	return &MarketingService{backend: backend, captcha: captcha}
}

// Subscribe 订阅邮件。成功与失败都返回后端提示信息
func (s *MarketingService) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	return s.backend.Subscribe(ctx, email)
}

// Contact 提交联系表单，主题为空时使用默认主题
func (s *MarketingService) Contact(ctx context.Context, req ContactRequest) (string, error) {
	input := upstream.ContactInput{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if input.Name == "" || input.Email == "" || input.Message == "" {
		return "", ErrContactIncomplete
	}
	if input.Subject == "" {
		input.Subject = constants.ContactDefaultSubject
	}
	if err := s.captcha.Verify(constants.CaptchaSceneContact, req.Captcha); err != nil {
		return "", err
	}
	return s.backend.SubmitContact(ctx, input)
}
