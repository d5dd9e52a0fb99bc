package sms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmckenna/chorewheel/internal/model"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		name    string
		person  model.Person
		want    string
		wantErr bool
	}{
		{
			name:   "verizon with formatting",
			person: model.Person{Name: "Avery", Phone: "(555) 123-4567", Carrier: "verizon"},
			want:   "5551234567@vtext.com",
		},
		{
			name:   "country code stripped to last ten",
			person: model.Person{Name: "Jordan", Phone: "+1 555 987 6543", Carrier: "att"},
			want:   "5559876543@txt.att.net",
		},
		{
			name:   "carrier case and whitespace",
			person: model.Person{Name: "Riley", Phone: "5550001111", Carrier: " TMobile "},
			want:   "5550001111@tmomail.net",
		},
		{
			name:    "unknown carrier",
			person:  model.Person{Name: "Sam", Phone: "5550001111", Carrier: "carrierpigeon"},
			wantErr: true,
		},
		{
			name:    "short phone",
			person:  model.Person{Name: "Quinn", Phone: "12345", Carrier: "verizon"},
			wantErr: true,
		},
		{
			name:    "no phone",
			person:  model.Person{Name: "Alex", Carrier: "verizon"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Address(tc.person)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Address(%+v) = %q, want error", tc.person, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Address: %v", err)
			}
			if got != tc.want {
				t.Errorf("Address = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSendChoreReminder(t *testing.T) {
	var received emailPayload
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewGateway("token-123", "chores@example.com", WithAPIURL(srv.URL))

	person := model.Person{Name: "Avery", Phone: "5551234567", Carrier: "verizon", DollarsOwed: 2}
	open := []model.Assignment{
		{Task: "Dishes", Frequency: model.FreqDaily},
		{Task: "Vacuum", Frequency: model.FreqWeekly},
	}
	if err := g.SendChoreReminder(person, open, "Jan 4 – Jan 10"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotToken != "token-123" {
		t.Errorf("server token = %q", gotToken)
	}
	if received.To != "5551234567@vtext.com" {
		t.Errorf("to = %q", received.To)
	}
	if received.From != "chores@example.com" {
		t.Errorf("from = %q", received.From)
	}
	// Each chore line carries its cadence label.
	for _, want := range []string{"Avery", "Dishes (daily)", "Vacuum (weekly)", "Jan 4 – Jan 10", "$2"} {
		if !strings.Contains(received.TextBody, want) {
			t.Errorf("body missing %q:\n%s", want, received.TextBody)
		}
	}
}

func TestSendChoreReminderAllDone(t *testing.T) {
	var received emailPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
	}))
	defer srv.Close()

	g := NewGateway("token", "chores@example.com", WithAPIURL(srv.URL))
	person := model.Person{Name: "Jordan", Phone: "5559876543", Carrier: "att", Paid: true}

	if err := g.SendChoreReminder(person, nil, "Jan 4 – Jan 10"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(received.TextBody, "All done") {
		t.Errorf("body = %q, want all-done message", received.TextBody)
	}
	if strings.Contains(received.TextBody, "Owed") {
		t.Error("paid person should not see an owed line")
	}
}

func TestSendChoreReminderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGateway("wrong", "chores@example.com", WithAPIURL(srv.URL))
	person := model.Person{Name: "Avery", Phone: "5551234567", Carrier: "verizon"}

	open := []model.Assignment{{Task: "Dishes", Frequency: model.FreqDaily}}
	if err := g.SendChoreReminder(person, open, "Jan 4 – Jan 10"); err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestGatewayUnconfigured(t *testing.T) {
	g := NewGateway("", "chores@example.com")
	if g.Configured() {
		t.Error("Configured = true without a token")
	}
	person := model.Person{Name: "Avery", Phone: "5551234567", Carrier: "verizon"}
	if err := g.SendChoreReminder(person, nil, ""); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}
