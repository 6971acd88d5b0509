package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/BradenHooton/taskpilot/pkg/logger"
)

// AWSSESEmailService delivers password-reset mail via AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	clientURL   string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service. clientURL is
// the front-end origin the reset link points at.
func NewAWSSESEmailService(region, fromAddress, clientURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		clientURL:   clientURL,
		logger:      logger,
	}, nil
}

// SendPasswordResetEmail sends the reset link embedding the token
func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, validFor time.Duration) error {
	resetLink := fmt.Sprintf("%s/reset-password/%s", s.clientURL, token)
	minutes := int(validFor.Minutes())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Reset Your Password</h1>
        <p>We received a request to reset the password for your account. Click the link below to choose a new password:</p>
        <p><a href="%s" class="button">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br>
        <code>%s</code></p>
        <p>This link expires in %d minutes.</p>
        <p><strong>Didn't request this?</strong><br>
        You can ignore this email. Your password will not be changed.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, resetLink, resetLink, minutes)

	textBody := fmt.Sprintf(`Reset Your Password

We received a request to reset the password for your account. Open the link below to choose a new password:

%s

This link expires in %d minutes.

Didn't request this? You can ignore this email. Your password will not be changed.
`, resetLink, minutes)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Password Reset"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send reset email via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("password reset email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", *result.MessageId))

	return nil
}
