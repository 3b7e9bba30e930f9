package notifysvc

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/bursar/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"

	// mockable
	sendFunc = sendgrid.API
)

// sendgridAlerter emails error notifications to the configured alert address.
type sendgridAlerter struct {
	key        string
	from       *sgmail.Email
	to         *sgmail.Email
	subjPrefix string
	logger     core.Logger
	async      bool
}

var _ core.Notifier = (*sendgridAlerter)(nil)

// NewSendgridAlerter returns nil when no API key or alert address is configured.
func NewSendgridAlerter(conf *core.Config, logger core.Logger) core.Notifier {
	if conf.Mail.SendgridAPIKey == "" || conf.Mail.AlertEmail == "" {
		return nil
	}
	return &sendgridAlerter{
		key:        conf.Mail.SendgridAPIKey,
		from:       sgmail.NewEmail(conf.AppName, conf.Mail.DefaultFromEmail),
		to:         sgmail.NewEmail("", conf.Mail.AlertEmail),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		async:      true,
	}
}

func (svc sendgridAlerter) Notify(message, color string) {
	if color != core.ColorError {
		return
	}
	if svc.async {
		go svc.send(message)
		return
	}
	svc.send(message)
}

func (svc sendgridAlerter) prepare(message string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + "Error notification"
	p.AddTos(svc.to)

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", message))
	return m
}

func (svc sendgridAlerter) send(message string) {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(message))

	var (
		res *rest.Response
		err error
	)
	res, err = sendFunc(req)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending alert: %v", err), err)
	} else if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error(fmt.Sprintf("sending alert - status: %d - Body: %s", res.StatusCode, res.Body))
	}
}
