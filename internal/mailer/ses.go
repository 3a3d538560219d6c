package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends templated email through Amazon SES.
type SESSender struct {
	client sesAPI
	from   string
}

// NewSESSender creates an SESSender using the default AWS credential chain.
func NewSESSender(ctx context.Context, region, from string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(cfg), from: from}, nil
}

// SendEmailWithTemplate implements Sender.
func (s *SESSender) SendEmailWithTemplate(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg.Variables)
	if err != nil {
		return fmt.Errorf("encode template data: %w", err)
	}

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.ToAddress},
		},
		Content: &types.EmailContent{
			Template: &types.Template{
				TemplateName: aws.String(sesTemplateName(msg.Template)),
				TemplateData: aws.String(string(data)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

// SES template names only allow alphanumerics, dashes and underscores.
func sesTemplateName(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}
