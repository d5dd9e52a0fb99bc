package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmckenna/chorewheel/internal/model"
)

// carrierDomains maps a carrier key to its email-to-SMS bridge domain.
var carrierDomains = map[string]string{
	"verizon":    "vtext.com",
	"att":        "txt.att.net",
	"tmobile":    "tmomail.net",
	"sprint":     "messaging.sprintpcs.com",
	"boost":      "sms.myboostmobile.com",
	"cricket":    "sms.cricketwireless.net",
	"uscellular": "email.uscc.net",
}

// Gateway sends chore reminders as SMS via each carrier's email bridge,
// delivered through a Postmark-compatible email API.
type Gateway struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(g *Gateway) {
		g.apiURL = url
	}
}

func NewGateway(serverToken, fromEmail string, opts ...Option) *Gateway {
	g := &Gateway{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      "https://api.postmarkapp.com/email",
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured returns true if the server token is set.
func (g *Gateway) Configured() bool {
	return g.serverToken != ""
}

// Address builds the email-to-SMS address for a person, or an error when the
// phone or carrier can't be bridged.
func Address(person model.Person) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, person.Phone)
	if len(digits) < 10 {
		return "", fmt.Errorf("person %s has no usable phone number", person.Name)
	}
	domain, ok := carrierDomains[strings.ToLower(strings.TrimSpace(person.Carrier))]
	if !ok {
		return "", fmt.Errorf("unknown carrier %q for %s", person.Carrier, person.Name)
	}
	return digits[len(digits)-10:] + "@" + domain, nil
}

type emailPayload struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

// SendChoreReminder sends one reminder to a person listing their open chores
// with each chore's cadence label, the amount owed, and the active week range.
func (g *Gateway) SendChoreReminder(person model.Person, open []model.Assignment, dateRange string) error {
	if !g.Configured() {
		return fmt.Errorf("sms gateway not configured: missing server token")
	}

	to, err := Address(person)
	if err != nil {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s! Chores for %s:\n", person.Name, dateRange)
	if len(open) == 0 {
		body.WriteString("All done — nothing left this cycle.\n")
	} else {
		for _, a := range open {
			fmt.Fprintf(&body, "- %s (%s)\n", a.Task, a.Frequency)
		}
	}
	if !person.Paid && person.DollarsOwed > 0 {
		fmt.Fprintf(&body, "Owed: $%d\n", person.DollarsOwed)
	}

	payload := emailPayload{
		From:     g.fromEmail,
		To:       to,
		Subject:  "Chore reminder",
		TextBody: body.String(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequest("POST", g.apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", g.serverToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway API error: status %d", resp.StatusCode)
	}

	return nil
}
