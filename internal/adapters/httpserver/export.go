package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/skinstore/internal/domain"
)

const ordersSheet = "Orders"

var exportHeader = []any{
	"Order ID", "Date", "Time", "Customer", "Email", "Status", "Payment", "Payment status",
	"Reference", "Items", "Subtotal", "Shipping", "Discount", "Tax", "Total", "Coupon", "Tracking",
}

func exportRow(o domain.Order) []any {
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		name := it.Name
		if it.SelectedVariant != nil && it.SelectedVariant.Name != "" {
			name += " (" + it.SelectedVariant.Name + ")"
		}
		lines = append(lines, fmt.Sprintf("%dx %s", it.Quantity, name))
	}
	ref, coupon := "", ""
	if o.PaymentReference != nil {
		ref = *o.PaymentReference
	}
	if o.CouponCode != nil {
		coupon = *o.CouponCode
	}
	return []any{
		o.ID.String(), o.Date, o.Time, o.CustomerName, o.CustomerEmail, string(o.Status),
		o.PaymentMethod, string(o.PaymentStatus), ref, strings.Join(lines, "; "),
		o.Subtotal, o.Shipping, o.DiscountAmount(), o.Tax, o.Total, coupon, o.TrackingNumber,
	}
}

func buildOrdersWorkbook(orders []domain.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	for i, o := range orders {
		row := exportRow(o)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(ordersSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Server) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Orders.All(r.Context(), callerFrom(r.Context()), orderFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := buildOrdersWorkbook(orders)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()
	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("write orders export")
	}
}
