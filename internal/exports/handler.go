package exports

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"treeleads/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	defaultTimezone = "UTC"
	dateLayout      = "2006-01-02"
)

var purchaseStatuses = map[string]bool{"completed": true, "refund_required": true}

// PurchaseLister loads purchases for export.
type PurchaseLister interface {
	ListPurchases(ctx context.Context, f PurchaseFilter) ([]PurchaseRow, error)
}

// Handler handles export requests.
type Handler struct {
	repo PurchaseLister
	now  func() time.Time
}

// NewHandler creates a new export handler.
func NewHandler(repo PurchaseLister) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

// ExportPurchasesCSV streams lead purchases as CSV for bookkeeping and refunds.
func (h *Handler) ExportPurchasesCSV(c *gin.Context) {
	fromDate, toDate, err := parseDateRange(c, h.now())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && !purchaseStatuses[status] {
		httpkit.Error(c, http.StatusBadRequest, "invalid status", nil)
		return
	}

	location, tzName, ok := parseTimezone(c)
	if !ok {
		return
	}

	rows, err := h.repo.ListPurchases(c.Request.Context(), PurchaseFilter{
		From:   fromDate,
		To:     toDate,
		Status: status,
		Limit:  parseLimit(c, 5000, 50000),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	writer, ok := startCsvResponse(c, tzName)
	if !ok {
		return
	}
	for _, row := range rows {
		if err := writer.Write(purchaseRecord(row, location)); err != nil {
			return
		}
	}
	writer.Flush()
}

func csvHeaders() []string {
	return []string{
		"Purchase ID",
		"Purchased At",
		"Lead ID",
		"Lead Type",
		"Service",
		"City",
		"State",
		"Company ID",
		"Company",
		"Amount",
		"Status",
		"Stripe Session",
	}
}

func purchaseRecord(p PurchaseRow, location *time.Location) []string {
	leadType := ""
	if p.LeadType != nil {
		leadType = *p.LeadType
	}
	session := ""
	if p.StripeSessionID != nil {
		session = *p.StripeSessionID
	}
	return []string{
		p.PurchaseID.String(),
		p.CreatedAt.In(location).Format("2006-01-02 15:04:05"),
		p.LeadID.String(),
		leadType,
		p.ServiceType,
		p.City,
		p.State,
		p.CompanyID.String(),
		p.CompanyName,
		formatAmount(p.AmountCents),
		p.Status,
		session,
	}
}

func startCsvResponse(c *gin.Context, tzName string) (*csv.Writer, bool) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=lead-purchases.csv")

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{fmt.Sprintf("Parameters:TimeZone=%s", tzName)}); err != nil {
		return nil, false
	}
	if err := writer.Write(csvHeaders()); err != nil {
		return nil, false
	}
	return writer, true
}

func parseTimezone(c *gin.Context) (*time.Location, string, bool) {
	tzName := strings.TrimSpace(c.DefaultQuery("timezone", defaultTimezone))
	location, err := time.LoadLocation(tzName)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid timezone", nil)
		return nil, "", false
	}
	return location, tzName, true
}

func parseDateRange(c *gin.Context, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	fromStr := strings.TrimSpace(c.Query("fromDate"))
	toStr := strings.TrimSpace(c.Query("toDate"))

	from := now.AddDate(0, 0, -90)
	to := now

	if fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.Add(24*time.Hour - time.Second)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("toDate before fromDate")
	}
	return from, to, nil
}

func parseLimit(c *gin.Context, fallback, maxLimit int) int {
	limit := fallback
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit > maxLimit {
		return maxLimit
	}
	if limit < 1 {
		return fallback
	}
	return limit
}

func formatAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}
