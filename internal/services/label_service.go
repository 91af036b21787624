package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"go.uber.org/zap"

	"pozt-backend/internal/models"
	"pozt-backend/internal/timeutil"
)

// LabelArchive stores rendered labels. The S3 archive in internal/storage satisfies it.
type LabelArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// LabelService renders airway bill (AWB) labels for orders.
type LabelService struct {
	Orders  *OrderService
	Archive LabelArchive
	logger  *zap.Logger
}

func NewLabelService(orders *OrderService, archive LabelArchive, logger *zap.Logger) *LabelService {
	return &LabelService{Orders: orders, Archive: archive, logger: logger.Named("labels")}
}

// AWB renders the label for trackingID and archives it when an archive is configured.
// Archive failures are logged, not returned.
func (s *LabelService) AWB(ctx context.Context, trackingID string) ([]byte, *models.Order, error) {
	order, err := s.Orders.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, nil, err
	}

	data, err := RenderAWB(order)
	if err != nil {
		return nil, nil, fmt.Errorf("render awb %s: %w", order.TrackingID, err)
	}

	if s.Archive != nil {
		key := order.TrackingID + ".pdf"
		if err := s.Archive.Put(ctx, key, data, "application/pdf"); err != nil {
			s.logger.Warn("awb archive failed", zap.String("tracking_id", order.TrackingID), zap.Error(err))
		}
	}
	return data, order, nil
}

// RenderAWB draws a 100x150mm shipping label.
func RenderAWB(o *models.Order) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 100, Ht: 150},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 5)
	pdf.AddPage()

	const w = 90

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(w, 8, "POztLite", "", 1, "C", false, 0, "")

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Courier", "B", 11)
	pdf.CellFormat(w, 10, o.TrackingID, "1", 1, "C", true, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(w/2, 10, o.PaymentLabel(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(w/2, 10, fmt.Sprintf("Rs. %.2f", o.TotalAmount), "1", 1, "C", false, 0, "")
	pdf.Ln(2)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(w, 6, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
	}

	section("Deliver To")
	pdf.CellFormat(w, 5, o.CustomerName, "", 1, "L", false, 0, "")
	pdf.MultiCell(w, 5, o.CustomerAddress, "", "L", false)
	place := o.CityName
	if o.StateName != "" {
		place += ", " + o.StateName
	}
	pdf.CellFormat(w, 5, place, "", 1, "L", false, 0, "")
	pdf.CellFormat(w, 5, "Phone: "+o.CustomerPhone, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	section("Shipper")
	pdf.CellFormat(w, 5, fmt.Sprintf("%s (%s)", o.ShipperName, o.ShipperCode), "", 1, "L", false, 0, "")
	if o.ShipperAddress != "" {
		pdf.MultiCell(w, 5, o.ShipperAddress, "", "L", false)
	}
	if o.ShipperPhone != "" {
		pdf.CellFormat(w, 5, "Phone: "+o.ShipperPhone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	section("Details")
	pdf.CellFormat(w/2, 5, "Order: "+timeutil.FormatIST(o.OrderDate, timeutil.DateLayout), "", 0, "L", false, 0, "")
	pdf.CellFormat(w/2, 5, "Deliver by: "+timeutil.FormatIST(o.DeliveryDate, timeutil.DateLayout), "", 1, "L", false, 0, "")
	pdf.CellFormat(w/2, 5, "Status: "+o.Status, "", 0, "L", false, 0, "")
	pdf.CellFormat(w/2, 5, "Route: "+o.CityShort, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
