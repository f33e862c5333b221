package invoice

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/switzbillz/switzbillz/internal/billing"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/settings"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.items[key]
	return data, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func setupQueries(t *testing.T) *db.Queries {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, "file:"+filepath.Join(t.TempDir(), "invoice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	q := db.New(database)
	s := &settings.Settings{
		CompanyName:    "Robert Schneider AG",
		CompanyStreet:  "Rue du Lac 1268",
		CompanyCity:    "2501 Biel",
		CompanyCountry: "CH",
		QRIBAN:         "CH4431999123000889012",
		BESRID:         "210000",
		AdditionalInfo: settings.AdditionalInfoInvoiceRef,
		ReferenceType:  settings.ReferenceTypeOrderID,
	}
	require.NoError(t, s.Save(ctx, q))
	return q
}

func createOrder(t *testing.T, q *db.Queries, withInvoice bool) db.Order {
	t.Helper()
	ctx := context.Background()
	order, err := q.CreateOrder(ctx, db.CreateOrderParams{
		Reference:         "XKBKNABJK",
		CartID:            1,
		Module:            "switzbillz",
		CustomerID:        3,
		CustomerFirstname: "Pia-Maria",
		CustomerLastname:  "Rutschmann-Schnyder",
		CustomerEmail:     "pia@example.com",
		Lang:              "de",
		Address1:          "Grosse Marktgasse",
		Address2:          "28",
		Postcode:          "9400",
		City:              "Rorschach",
		CountryIso:        "CH",
		Currency:          "CHF",
		TotalPaid:         decimal.RequireFromString("1949.75"),
		CurrentState:      1,
		SecureKey:         "key",
	})
	require.NoError(t, err)

	if withInvoice {
		_, err := q.CreateOrderInvoice(ctx, db.CreateOrderInvoiceParams{OrderID: order.ID, Total: order.TotalPaid})
		require.NoError(t, err)
	}
	return order
}

func pageCount(t *testing.T, content []byte) int {
	t.Helper()
	n, err := pdfapi.PageCount(bytes.NewReader(content), model.NewDefaultConfiguration())
	require.NoError(t, err)
	return n
}

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "IN000007", FormatInvoiceNumber("IN", 7))
	assert.Equal(t, "#IN123456", FormatInvoiceNumber("#IN", 123456))
	assert.Equal(t, "1234567", FormatInvoiceNumber("", 1234567))
}

func TestQRFilename(t *testing.T) {
	assert.Equal(t, "QR_invoice_42.pdf", QRFilename(42))
}

func TestInvoicePDF(t *testing.T) {
	r := NewRenderer("Swiss Shop", "")
	assert.Equal(t, DefaultPrefix, r.Prefix())

	for _, lang := range []string{"de", "fr", "it", "en", "es"} {
		t.Run(lang, func(t *testing.T) {
			content, err := r.InvoicePDF(db.Order{
				Reference:         "XKBKNABJK",
				Lang:              lang,
				CustomerFirstname: "Zoë",
				CustomerLastname:  "Müller",
				Currency:          "CHF",
			}, db.OrderInvoice{Number: 1, Total: decimal.RequireFromString("10"), CreatedAt: time.Now()})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
			assert.Equal(t, 1, pageCount(t, content))
		})
	}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	r := NewRenderer("Swiss Shop", "IN")

	part, err := r.InvoicePDF(db.Order{Reference: "A", Currency: "CHF"}, db.OrderInvoice{Number: 1, Total: decimal.NewFromInt(1)})
	require.NoError(t, err)

	merged, err := Merge(ctx, tmp, part, part, part)
	require.NoError(t, err)
	assert.Equal(t, 3, pageCount(t, merged))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files are removed")

	_, err = Merge(ctx, tmp)
	assert.Error(t, err)

	_, err = Merge(ctx, tmp, []byte("not a pdf"))
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Merge(canceled, tmp, part)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratePDF(t *testing.T) {
	q := setupQueries(t)
	order := createOrder(t, q, true)
	pdfCache := &memoryCache{items: map[string][]byte{}}
	publisher := &events.Memory{}

	svc := NewService(q, NewRenderer("Swiss Shop", "IN"), pdfCache, publisher, t.TempDir())

	doc, err := svc.GeneratePDF(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice_IN000001.pdf", doc.Filename)
	assert.Equal(t, "IN000001", doc.InvoiceNumber)
	assert.Equal(t, 2, pageCount(t, doc.Content))
	assert.Equal(t, []string{events.QRBillGenerated}, publisher.Types())
	assert.Len(t, pdfCache.items, 1)

	logs, err := q.ListLogsFiltered(context.Background(), db.ListLogsFilteredParams{Subsystem: "qrbill", Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Metadata.String, `"invoice_number":"IN000001"`)

	cached, err := svc.GeneratePDF(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, cached.Content)
	assert.Len(t, publisher.Types(), 1, "cached documents are not regenerated")
}

func TestGeneratePDFErrors(t *testing.T) {
	q := setupQueries(t)
	svc := NewService(q, NewRenderer("Swiss Shop", "IN"), nil, nil, t.TempDir())

	_, err := svc.GeneratePDF(context.Background(), 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	order := createOrder(t, q, false)
	_, err = svc.GeneratePDF(context.Background(), order.ID)
	assert.ErrorIs(t, err, billing.ErrNoInvoice)
}
