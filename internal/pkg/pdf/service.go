// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/config"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
)

var (
	ErrInvalidOrderNumber = errors.New("invalid order number")
	ErrReceiptNotFound    = errors.New("receipt not found")
)

var orderNumberPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// RenderFunc converts an HTML document into PDF bytes
type RenderFunc func(html []byte) ([]byte, error)

// Service writes PDF receipts for finished orders into a directory
type Service struct {
	dir    string
	shop   ShopInfo
	render RenderFunc
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a receipt service rendering with wkhtmltopdf
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		dir: cfg.Kiosk.ReceiptDir,
		shop: ShopInfo{
			Name:    cfg.App.ShopName,
			Address: cfg.App.ShopAddress,
		},
		render: renderWkhtmltopdf,
		logger: logger,
		now:    time.Now,
	}
}

// Invoice renders the receipt of result and stores it under its order number
func (s *Service) Invoice(ctx context.Context, result *order.Result) error {
	path, err := s.Path(result.OrderNumber)
	if err != nil {
		return err
	}

	html, err := s.generateHTML(s.receiptData(result))
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.render(html)
	if err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create receipt dir: %w", err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": result.OrderNumber,
		"path":         path,
	}).Info("🧾 Receipt written")
	return nil
}

// Path returns where the receipt of orderNumber is stored
func (s *Service) Path(orderNumber string) (string, error) {
	if !orderNumberPattern.MatchString(orderNumber) {
		return "", ErrInvalidOrderNumber
	}
	return filepath.Join(s.dir, "receipt-"+orderNumber+".pdf"), nil
}

// Open returns the stored receipt of orderNumber
func (s *Service) Open(orderNumber string) (string, error) {
	path, err := s.Path(orderNumber)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrReceiptNotFound
		}
		return "", err
	}
	return path, nil
}

func (s *Service) receiptData(result *order.Result) ReceiptData {
	data := ReceiptData{
		ReceiptNumber: "RCPT-" + result.OrderNumber,
		Date:          s.now().Format("02.01.2006 15:04"),
		Order:         result,
		Shop:          s.shop,
	}
	if result.Customer != nil && result.Customer.Exist {
		data.CustomerName = result.Customer.FullName
	}
	return data
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func renderWkhtmltopdf(html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set("A5")
	pdfg.Grayscale.Set(true)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, err
	}
	return pdfg.Bytes(), nil
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	Date          string
	CustomerName  string
	Order         *order.Result
	Shop          ShopInfo
}

// ShopInfo represents the shop printed in the receipt header
type ShopInfo struct {
	Name    string
	Address string
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 12px; margin-bottom: 20px; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        .items-table th, .items-table td { border-bottom: 1px solid #ddd; padding: 8px 4px; text-align: left; }
        .items-table .num { text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; }
        .footer { margin-top: 30px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Shop.Name}}</h1>
        {{if .Shop.Address}}<p>{{.Shop.Address}}</p>{{end}}
        <p><strong>Receipt #:</strong> {{.ReceiptNumber}}</p>
        <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
        <p><strong>Date:</strong> {{.Date}}</p>
        {{if .CustomerName}}<p><strong>Customer:</strong> {{.CustomerName}}</p>{{end}}
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Order.Cart}}
            <tr>
                <td>{{.Name}}{{if .Gramm}} ({{.Gramm}} g){{end}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.Price.StringFixed 2}} €</td>
                <td class="num">{{.Subtotal.StringFixed 2}} €</td>
            </tr>
            {{end}}
        </tbody>
        <tfoot>
            <tr class="total-row">
                <td colspan="3">Total</td>
                <td class="num">{{.Order.Total.StringFixed 2}} €</td>
            </tr>
        </tfoot>
    </table>

    <div class="footer">
        <p>Thank you for shopping with us!</p>
    </div>
</body>
</html>
`))
