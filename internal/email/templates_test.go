package email

import (
	"context"
	"strings"
	"testing"
)

func sampleContact() LeadContact {
	return LeadContact{
		LeadSummary: LeadSummary{
			ID:          "0b7c6a4e-0000-4000-8000-000000000001",
			ServiceType: "Tree Removal",
			City:        "Austin",
			State:       "TX",
			LeadType:    "shared",
			Description: "Oak leaning over the garage <b>asap</b>",
		},
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+15125550123",
	}
}

func TestRenderTemplatesIncludeContent(t *testing.T) {
	lead := sampleContact()

	tests := []struct {
		name   string
		render func() (string, error)
		want   []string
		absent []string
	}{
		{
			name:   "new lead",
			render: func() (string, error) { return renderNewLeadEmail(lead, "https://admin.example.com/leads/1") },
			want:   []string{"Dana Reyes", "5125550123", "https://admin.example.com/leads/1", "Tree Removal in Austin, TX"},
		},
		{
			name:   "assigned",
			render: func() (string, error) { return renderLeadAssignedEmail("Acme Arborists", lead, 4) },
			want:   []string{"Hi Acme Arborists", "dana@example.com", "Credits remaining: 4"},
			absent: []string{"Amount paid"},
		},
		{
			name:   "purchased",
			render: func() (string, error) { return renderLeadPurchasedEmail("Acme Arborists", lead, 4400) },
			want:   []string{"Amount paid: $44.00", "5125550123"},
			absent: []string{"Credits remaining"},
		},
		{
			name: "available hides contact",
			render: func() (string, error) {
				return renderLeadAvailableEmail("Acme Arborists", lead.LeadSummary, 12900, "https://buy.stripe.com/x?client_reference_id=c")
			},
			want:   []string{"$129.00", "Buy this lead", "client_reference_id=c"},
			absent: []string{"Dana Reyes", "dana@example.com", "5125550123"},
		},
		{
			name: "oversold",
			render: func() (string, error) {
				return renderOversoldEmail("Acme Arborists", lead.LeadSummary, 8900, "https://admin.example.com")
			},
			want: []string{"refund_required", "$89.00", lead.ID},
		},
		{
			name:   "credits granted",
			render: func() (string, error) { return renderCreditsGrantedEmail("Acme Arborists", 1, 3) },
			want:   []string{"1 lead credit was added", "balance is now 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.render()
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected output to contain %q", w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("expected output not to contain %q", a)
				}
			}
		})
	}
}

// html/template writes "+" as "&#43;", so phone checks match the digits.
func TestRenderEscapesPhonePlus(t *testing.T) {
	out, err := renderNewLeadEmail(sampleContact(), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "&#43;15125550123") {
		t.Fatal("expected escaped E.164 phone in output")
	}
}

func TestRenderEscapesUserInput(t *testing.T) {
	out, err := renderNewLeadEmail(sampleContact(), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<b>asap</b>") {
		t.Fatal("description was not escaped")
	}
	if strings.Contains(out, "Open lead") {
		t.Fatal("call to action rendered without a URL")
	}
}

func TestFormatCurrencyUSD(t *testing.T) {
	tests := map[int64]string{
		0:       "$0.00",
		4400:    "$44.00",
		12905:   "$129.05",
		1234567: "$12,345.67",
		-250:    "-$2.50",
	}
	for cents, want := range tests {
		if got := formatCurrencyUSD(cents); got != want {
			t.Errorf("formatCurrencyUSD(%d) = %q, want %q", cents, got, want)
		}
	}
}

type emailConfigStub struct{ enabled bool }

func (s emailConfigStub) GetEmailEnabled() bool       { return s.enabled }
func (s emailConfigStub) GetSMTPHost() string         { return "smtp.example.com" }
func (s emailConfigStub) GetSMTPPort() int            { return 587 }
func (s emailConfigStub) GetSMTPUsername() string     { return "" }
func (s emailConfigStub) GetSMTPPassword() string     { return "" }
func (s emailConfigStub) GetEmailFromName() string    { return "Tree Service Leads" }
func (s emailConfigStub) GetEmailFromAddress() string { return "leads@example.com" }

func TestNewSenderSelectsImplementation(t *testing.T) {
	sender, err := NewSender(emailConfigStub{enabled: false})
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	if _, ok := sender.(NoopSender); !ok {
		t.Fatalf("expected NoopSender, got %T", sender)
	}
	if err := sender.SendCreditsGrantedEmail(context.Background(), "a@example.com", "Acme", 1, 1); err != nil {
		t.Fatalf("noop send: %v", err)
	}

	sender, err = NewSender(emailConfigStub{enabled: true})
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	if _, ok := sender.(*SMTPSender); !ok {
		t.Fatalf("expected *SMTPSender, got %T", sender)
	}
}
