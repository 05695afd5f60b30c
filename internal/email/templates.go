package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type newLeadEmailData struct {
	baseEmailData
	Lead LeadContact
}

type leadDeliveryEmailData struct {
	baseEmailData
	CompanyName      string
	Lead             LeadContact
	AmountFormatted  string
	RemainingCredits int
	ViaCredit        bool
}

type oversoldEmailData struct {
	baseEmailData
	CompanyName     string
	Lead            LeadSummary
	AmountFormatted string
}

type leadAvailableEmailData struct {
	baseEmailData
	CompanyName    string
	Lead           LeadSummary
	PriceFormatted string
}

type creditsGrantedEmailData struct {
	baseEmailData
	CompanyName string
	Amount      int
	Balance     int
}

func renderNewLeadEmail(lead LeadContact, adminURL string) (string, error) {
	return renderEmailTemplate("new_lead.html", newLeadEmailData{
		baseEmailData: baseEmailData{
			Title:      "New quote request",
			Heading:    "A homeowner requested a quote",
			Subheading: fmt.Sprintf("%s in %s, %s", lead.ServiceType, lead.City, lead.State),
			CTALabel:   "Open lead",
			CTAURL:     adminURL,
		},
		Lead: lead,
	})
}

func renderLeadAssignedEmail(companyName string, lead LeadContact, remainingCredits int) (string, error) {
	return renderEmailTemplate("lead_delivery.html", leadDeliveryEmailData{
		baseEmailData: baseEmailData{
			Title:      "Lead assigned",
			Heading:    "A new lead is yours",
			Subheading: "One credit was used for this lead.",
		},
		CompanyName:      companyName,
		Lead:             lead,
		RemainingCredits: remainingCredits,
		ViaCredit:        true,
	})
}

func renderLeadPurchasedEmail(companyName string, lead LeadContact, amountCents int64) (string, error) {
	return renderEmailTemplate("lead_delivery.html", leadDeliveryEmailData{
		baseEmailData: baseEmailData{
			Title:      "Lead purchased",
			Heading:    "Thanks for your purchase",
			Subheading: "Here are the homeowner's contact details.",
		},
		CompanyName:     companyName,
		Lead:            lead,
		AmountFormatted: formatCurrencyUSD(amountCents),
	})
}

func renderOversoldEmail(companyName string, lead LeadSummary, amountCents int64, adminURL string) (string, error) {
	return renderEmailTemplate("oversold.html", oversoldEmailData{
		baseEmailData: baseEmailData{
			Title:    "Refund required",
			Heading:  "A lead was paid for after it closed",
			CTALabel: "Review purchases",
			CTAURL:   adminURL,
		},
		CompanyName:     companyName,
		Lead:            lead,
		AmountFormatted: formatCurrencyUSD(amountCents),
	})
}

func renderLeadAvailableEmail(companyName string, lead LeadSummary, priceCents int64, purchaseURL string) (string, error) {
	return renderEmailTemplate("lead_available.html", leadAvailableEmailData{
		baseEmailData: baseEmailData{
			Title:      "New lead available",
			Heading:    "A new lead is available in your area",
			Subheading: fmt.Sprintf("%s in %s, %s", lead.ServiceType, lead.City, lead.State),
			CTALabel:   "Buy this lead",
			CTAURL:     purchaseURL,
		},
		CompanyName:    companyName,
		Lead:           lead,
		PriceFormatted: formatCurrencyUSD(priceCents),
	})
}

func renderCreditsGrantedEmail(companyName string, amount, balance int) (string, error) {
	return renderEmailTemplate("credits_granted.html", creditsGrantedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Credits added",
			Heading: "Lead credits were added to your account",
		},
		CompanyName: companyName,
		Amount:      amount,
		Balance:     balance,
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := fmt.Sprintf("%d", cents/100)
	var grouped strings.Builder
	for i, r := range dollars {
		if i > 0 && (len(dollars)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), cents%100)
}
