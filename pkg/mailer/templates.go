package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const previewLimit = 100

type Recipient struct {
	Username string
	Email    string
}

type OrderDetails struct {
	OrderID   string
	ItemTitle string
	Total     string
	Buyer     Recipient
	Seller    Recipient
}

var (
	orderConfirmationText = texttemplate.Must(texttemplate.New("order_confirmation").Parse(
		`Hi {{.Buyer.Username}},

Thanks for your purchase! Your order {{.OrderID}} for "{{.ItemTitle}}" is confirmed.
Total paid: ${{.Total}}

{{.Seller.Username}} will ship your item soon.

ThriftGram
`))
	orderConfirmationHTML = htmltemplate.Must(htmltemplate.New("order_confirmation").Parse(
		`<h2>Order confirmed</h2><p>Hi {{.Buyer.Username}},</p><p>Your order <strong>{{.OrderID}}</strong> for <strong>{{.ItemTitle}}</strong> is confirmed.</p><p>Total paid: ${{.Total}}</p><p>{{.Seller.Username}} will ship your item soon.</p>`))

	newOrderText = texttemplate.Must(texttemplate.New("new_order").Parse(
		`Hi {{.Seller.Username}},

Good news! {{.Buyer.Username}} bought "{{.ItemTitle}}" (order {{.OrderID}}) for ${{.Total}}.
Please ship it as soon as possible and mark the order as shipped.

ThriftGram
`))
	newOrderHTML = htmltemplate.Must(htmltemplate.New("new_order").Parse(
		`<h2>You made a sale!</h2><p>Hi {{.Seller.Username}},</p><p>{{.Buyer.Username}} bought <strong>{{.ItemTitle}}</strong> (order {{.OrderID}}) for ${{.Total}}.</p><p>Please ship it and mark the order as shipped.</p>`))

	newMessageText = texttemplate.Must(texttemplate.New("new_message").Parse(
		`Hi {{.Recipient.Username}},

{{.Sender}} sent you a message:

"{{.Preview}}"

Reply on ThriftGram.
`))
	newMessageHTML = htmltemplate.Must(htmltemplate.New("new_message").Parse(
		`<p>Hi {{.Recipient.Username}},</p><p><strong>{{.Sender}}</strong> sent you a message:</p><blockquote>{{.Preview}}</blockquote>`))

	newFollowerText = texttemplate.Must(texttemplate.New("new_follower").Parse(
		`Hi {{.Recipient.Username}},

{{.Follower}} started following you on ThriftGram.
`))
	newFollowerHTML = htmltemplate.Must(htmltemplate.New("new_follower").Parse(
		`<p>Hi {{.Recipient.Username}},</p><p><strong>{{.Follower}}</strong> started following you on ThriftGram.</p>`))
)

func render(text *texttemplate.Template, html *htmltemplate.Template, data interface{}) (string, string, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", text.Name(), err)
	}
	if err := html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", html.Name(), err)
	}
	return tb.String(), hb.String(), nil
}

func OrderConfirmation(d OrderDetails) (Email, error) {
	text, html, err := render(orderConfirmationText, orderConfirmationHTML, d)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      []string{d.Buyer.Email},
		Subject: fmt.Sprintf("Order Confirmation - %s", d.ItemTitle),
		Text:    text,
		HTML:    html,
	}, nil
}

func NewOrderNotice(d OrderDetails) (Email, error) {
	text, html, err := render(newOrderText, newOrderHTML, d)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      []string{d.Seller.Email},
		Subject: fmt.Sprintf("New Order! %s has been sold", d.ItemTitle),
		Text:    text,
		HTML:    html,
	}, nil
}

func NewMessage(recipient Recipient, senderName, content string) (Email, error) {
	data := struct {
		Recipient Recipient
		Sender    string
		Preview   string
	}{recipient, senderName, Preview(content)}

	text, html, err := render(newMessageText, newMessageHTML, data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      []string{recipient.Email},
		Subject: fmt.Sprintf("New message from %s", senderName),
		Text:    text,
		HTML:    html,
	}, nil
}

func NewFollower(recipient Recipient, followerName string) (Email, error) {
	data := struct {
		Recipient Recipient
		Follower  string
	}{recipient, followerName}

	text, html, err := render(newFollowerText, newFollowerHTML, data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      []string{recipient.Email},
		Subject: fmt.Sprintf("%s started following you", followerName),
		Text:    text,
		HTML:    html,
	}, nil
}

// Preview truncates message content for notification emails.
func Preview(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "..."
}
