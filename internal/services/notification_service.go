// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/metrics"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

var ErrMailerNotConfigured = errors.New("mailer not configured")

type EmailMessage struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers one rendered message.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
	Provider() string
}

// NewMailer picks the delivery backend named by EMAIL_PROVIDER.
func NewMailer(ctx context.Context, cfg *config.Config) (Mailer, error) {
	switch cfg.Email.Provider {
	case "ses":
		return NewSESMailer(ctx, cfg.AWS.SESRegion)
	case "smtp", "":
		return NewSMTPMailer(cfg.Email), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}

type SMTPMailer struct {
	cfg  config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) Provider() string { return "smtp" }

func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	if m.cfg.SMTPHost == "" || m.cfg.SMTPUsername == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{
			"to":      strings.Join(msg.To, ","),
			"subject": msg.Subject,
		}).Warn("SMTP not configured, email not sent")
		return nil
	}

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return m.send(addr, auth, m.cfg.FromEmail, msg.To, []byte(b.String()))
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESMailer struct {
	client sesAPI
}

func NewSESMailer(ctx context.Context, region string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(cfg)}, nil
}

func (m *SESMailer) Provider() string { return "ses" }

func (m *SESMailer) Send(ctx context.Context, msg EmailMessage) error {
	input := &ses.SendEmailInput{
		Source:      awsv2.String(msg.From),
		Destination: &sestypes.Destination{ToAddresses: msg.To},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awsv2.String(msg.Subject), Charset: awsv2.String("UTF-8")},
			Body: &sestypes.Body{
				Html: &sestypes.Content{Data: awsv2.String(msg.HTML), Charset: awsv2.String("UTF-8")},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	logrus.WithField("message_id", awsv2.ToString(out.MessageId)).Debug("SES accepted email")
	return nil
}

// NotificationService tells the back office about a new submission.
type NotificationService struct {
	mailer Mailer
	config *config.Config
	tmpl   *template.Template
	now    func() time.Time
}

func NewNotificationService(mailer Mailer, config *config.Config) *NotificationService {
	return &NotificationService{
		mailer: mailer,
		config: config,
		tmpl:   template.Must(template.New("submission").Funcs(templateFuncs).Parse(submissionTemplate)),
		now:    time.Now,
	}
}

// SubmissionSubject is "Nova Solicitação - <trademark> - <applicant>".
func SubmissionSubject(record wizard.ApplicationRecord) string {
	return fmt.Sprintf("Nova Solicitação - %s - %s", record.Trademark.Name, record.Applicant.FullName)
}

func (s *NotificationService) NotifySubmission(ctx context.Context, record wizard.ApplicationRecord) error {
	body, err := s.RenderSubmission(record)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	from := s.config.Email.FromEmail
	if s.config.Email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	}

	err = s.mailer.Send(ctx, EmailMessage{
		From:    from,
		To:      []string{s.config.Email.Recipient},
		ReplyTo: record.Applicant.Email,
		Subject: SubmissionSubject(record),
		HTML:    body,
	})
	if err != nil {
		metrics.EmailsSent.WithLabelValues(s.mailer.Provider(), "failed").Inc()
		return err
	}
	metrics.EmailsSent.WithLabelValues(s.mailer.Provider(), "sent").Inc()
	return nil
}

type submissionEmail struct {
	SentAt       string
	Applicant    wizard.Applicant
	Individual   *wizard.IndividualHolder
	Organization *wizard.OrganizationHolder
	Trademark    wizard.Trademark
}

func (s *NotificationService) RenderSubmission(record wizard.ApplicationRecord) (string, error) {
	data := submissionEmail{
		SentAt:    s.now().Format("02/01/2006 15:04"),
		Applicant: record.Applicant,
		Trademark: record.Trademark,
	}
	switch h := record.Holder.(type) {
	case *wizard.IndividualHolder:
		data.Individual = h
	case *wizard.OrganizationHolder:
		data.Organization = h
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var templateFuncs = template.FuncMap{
	"yesno": func(b *bool) string {
		if b != nil && *b {
			return "Sim"
		}
		return "Não"
	},
	"contact": func(p wizard.ContactPreference) string {
		if p == wizard.ContactWhatsApp {
			return "WhatsApp"
		}
		return "E-mail"
	},
	"role": func(r wizard.RepresentativeRole) string {
		switch r {
		case wizard.RoleSelf:
			return "Titular"
		case wizard.RoleAttorneyInFact:
			return "Procurador"
		default:
			return "Não"
		}
	},
	"category": func(c wizard.TrademarkCategory) string {
		switch c {
		case wizard.CategoryGoods:
			return "Produtos"
		case wizard.CategoryServices:
			return "Serviços"
		default:
			return "Outros"
		}
	},
	"address": func(a wizard.Address) string {
		line := a.Street + ", " + a.Number
		if a.Complement != "" {
			line += " - " + a.Complement
		}
		return fmt.Sprintf("%s - %s, %s/%s - CEP: %s", line, a.Neighborhood, a.City, a.State, a.PostalCode)
	},
}

const submissionTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.section { background: #f9f9f9; padding: 20px; margin: 20px 0; border-left: 4px solid #667eea; }
		.label { font-weight: bold; color: #555; }
	</style>
</head>
<body>
	<h1>Nova Solicitação de Registro de Marca</h1>
	<p>Data: {{.SentAt}}</p>

	<div class="section">
		<h2>Dados do Cliente</h2>
		<p><span class="label">Nome:</span> {{.Applicant.FullName}}</p>
		<p><span class="label">CPF:</span> {{.Applicant.TaxID}}</p>
		<p><span class="label">E-mail:</span> {{.Applicant.Email}}</p>
		<p><span class="label">Telefone:</span> {{.Applicant.Phone}}</p>
		<p><span class="label">Endereço:</span> {{address .Applicant.Address}}</p>
		<p><span class="label">Preferência de Contato:</span> {{contact .Applicant.ContactPreference}}</p>
		{{if .Applicant.IdentityDocument}}<p><span class="label">RG:</span> Arquivo anexado: {{.Applicant.IdentityDocument}}</p>{{end}}
	</div>

	<div class="section">
		<h2>Dados do Titular da Marca</h2>
		{{with .Individual}}
		<p><span class="label">Tipo:</span> Pessoa Física</p>
		<p><span class="label">Nome:</span> {{.FullName}}</p>
		<p><span class="label">CPF:</span> {{.TaxID}}</p>
		<p><span class="label">Data de Nascimento:</span> {{.BirthDate}}</p>
		<p><span class="label">Profissão:</span> {{.Profession}}</p>
		<p><span class="label">Possui Sociedade:</span> {{yesno .HasRelatedBusiness}}</p>
		<p><span class="label">Representante:</span> {{role .RepresentativeRole}}</p>
		<p><span class="label">Endereço:</span> {{address .Address}}</p>
		{{if .IdentityDocument}}<p><span class="label">Documento:</span> Arquivo anexado: {{.IdentityDocument}}</p>{{end}}
		{{if .QualificationProof}}<p><span class="label">Comprovante:</span> Arquivo anexado: {{.QualificationProof}}</p>{{end}}
		{{if .PowerOfAttorney}}<p><span class="label">Procuração:</span> Arquivo anexado: {{.PowerOfAttorney}}</p>{{end}}
		{{end}}
		{{with .Organization}}
		<p><span class="label">Tipo:</span> Pessoa Jurídica</p>
		<p><span class="label">CNPJ:</span> {{.CompanyID}}</p>
		{{with .Registry}}
		<p><span class="label">Razão Social:</span> {{.LegalName}}</p>
		{{if .TradeName}}<p><span class="label">Nome Fantasia:</span> {{.TradeName}}</p>{{end}}
		<p><span class="label">Porte:</span> {{.Size}}</p>
		<p><span class="label">Natureza Jurídica:</span> {{.LegalNature}}</p>
		<p><span class="label">CNAE:</span> {{.PrimaryActivity}}</p>
		{{end}}
		<p><span class="label">Responsável Legal:</span> {{role .RepresentativeRole}}</p>
		{{if .PowerOfAttorney}}<p><span class="label">Procuração:</span> Arquivo anexado: {{.PowerOfAttorney}}</p>{{end}}
		{{end}}
	</div>

	<div class="section">
		<h2>Dados da Marca</h2>
		<p><span class="label">Nome da Marca:</span> <strong>{{.Trademark.Name}}</strong></p>
		<p><span class="label">Utilização:</span> {{category .Trademark.Category}}</p>
		<p><span class="label">Atividades:</span> {{.Trademark.Description}}</p>
		<p><span class="label">Possui Logo:</span> {{yesno .Trademark.HasLogo}}</p>
		{{if .Trademark.Logo}}<p><span class="label">Logo:</span> Arquivo anexado: {{.Trademark.Logo}}</p>{{end}}
	</div>

	<p style="color: #999; font-size: 12px;">Marca Fácil - Registro de Marcas</p>
</body>
</html>`
