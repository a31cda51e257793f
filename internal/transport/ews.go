package transport

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"mailspool/internal/models"
)

// TokenSource provides the bearer token for outbound calls. Satisfied by
// the token cache.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// EWSClient sends message batches through Exchange Web Services: one
// authenticated CreateItem call per batch, every message in the Items
// element, bearer token from the token source.
type EWSClient struct {
	http   *resty.Client
	url    string
	tokens TokenSource
}

func NewEWSClient(endpointURL string, tokens TokenSource, timeout time.Duration) *EWSClient {
	client := resty.New().SetTimeout(timeout)
	return &EWSClient{
		http:   client,
		url:    endpointURL,
		tokens: tokens,
	}
}

func (c *EWSClient) SendBatch(ctx context.Context, messages []models.RenderedMessage, kind models.BodyKind) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: empty batch", ErrSend)
	}

	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}

	payload, err := buildCreateItemEnvelope(messages, kind)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/xml").
		SetAuthToken(accessToken).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: upstream responded %s: %s", ErrSend, resp.Status(), resp.String())
	}
	return nil
}

// SOAP envelope for the EWS CreateItem operation. Namespace prefixes are
// spelled out literally in the element names, which encoding/xml passes
// through as-is on marshal.
type soapEnvelope struct {
	XMLName   xml.Name `xml:"soap:Envelope"`
	XMLNSSoap string   `xml:"xmlns:soap,attr"`
	XMLNST    string   `xml:"xmlns:t,attr"`
	XMLNSM    string   `xml:"xmlns:m,attr"`
	Header    soapHeader
	Body      soapBody
}

type soapHeader struct {
	XMLName       xml.Name `xml:"soap:Header"`
	ServerVersion struct {
		Version string `xml:"Version,attr"`
	} `xml:"t:RequestServerVersion"`
}

type soapBody struct {
	XMLName    xml.Name `xml:"soap:Body"`
	CreateItem createItem
}

type createItem struct {
	XMLName            xml.Name `xml:"m:CreateItem"`
	MessageDisposition string   `xml:"MessageDisposition,attr"`
	SavedItemFolderID  struct {
		DistinguishedFolderID struct {
			ID string `xml:"Id,attr"`
		} `xml:"t:DistinguishedFolderId"`
	} `xml:"m:SavedItemFolderId"`
	Items struct {
		Messages []ewsMessage `xml:"t:Message"`
	} `xml:"m:Items"`
}

type ewsMessage struct {
	Subject string  `xml:"t:Subject"`
	Body    ewsBody `xml:"t:Body"`
	To      struct {
		Mailbox struct {
			EmailAddress string `xml:"t:EmailAddress"`
		} `xml:"t:Mailbox"`
	} `xml:"t:ToRecipients"`
}

type ewsBody struct {
	BodyType string `xml:"BodyType,attr"`
	Text     string `xml:",chardata"`
}

func buildCreateItemEnvelope(messages []models.RenderedMessage, kind models.BodyKind) ([]byte, error) {
	bodyType := "Text"
	if kind == models.BodyHTML {
		bodyType = "HTML"
	}

	env := soapEnvelope{
		XMLNSSoap: "http://schemas.xmlsoap.org/soap/envelope/",
		XMLNST:    "http://schemas.microsoft.com/exchange/services/2006/types",
		XMLNSM:    "http://schemas.microsoft.com/exchange/services/2006/messages",
	}
	env.Header.ServerVersion.Version = "Exchange2016"
	env.Body.CreateItem.MessageDisposition = "SendAndSaveCopy"
	env.Body.CreateItem.SavedItemFolderID.DistinguishedFolderID.ID = "sentitems"

	for _, m := range messages {
		var msg ewsMessage
		msg.Subject = m.Subject
		msg.Body = ewsBody{BodyType: bodyType, Text: m.Body}
		msg.To.Mailbox.EmailAddress = m.To
		env.Body.CreateItem.Items.Messages = append(env.Body.CreateItem.Items.Messages, msg)
	}

	out, err := xml.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
