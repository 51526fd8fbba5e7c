package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/export"
)

func TestPurchaseAddsCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.purchases.Purchase(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, result.PackageCredits)
	assert.Equal(t, "Starter Pack", result.Purchase.PackageName)
	assert.Equal(t, 5, result.Purchase.Credits)
	assert.Equal(t, 200.0, result.Purchase.Price)
	assert.Equal(t, fixedNow, result.Purchase.Date)
	assert.Equal(t, 10, f.credits(t, "u1"))

	purchases, err := f.purchases.List(ctx, models.PurchaseFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, result.Purchase.ID, purchases[0].ID, "newest first")

	assert.Equal(t, uint64(5), f.metrics.Snapshot().CreditsPurchased)
	assert.Equal(t, []string{EventPackagePurchased}, f.events.types())
}

func TestPurchaseRejectsInvalidBuyers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.purchases.Purchase(ctx, "i1", "p1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.purchases.Purchase(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = f.purchases.Purchase(ctx, "ghost", "p1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, 5, f.credits(t, "u1"))
}

func TestFinancialSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.purchases.Purchase(ctx, "u1", "p2")
	require.NoError(t, err)
	session := f.session(t, "2025-11-03", "10:00", 0)
	_, err = f.enrollment.Enroll(ctx, session.ID, "u1")
	require.NoError(t, err)
	f.session(t, "2025-11-05", "10:00", 0)

	f.purchases.now = func() time.Time { return time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC) }
	summary, err := f.purchases.FinancialSummary(ctx, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 550.0, summary.TotalRevenue)
	assert.Equal(t, 2, summary.TotalPurchases)
	assert.Equal(t, []models.FinancialStat{
		{Month: "2025-10", Revenue: 200},
		{Month: "2025-11", Revenue: 350, LessonsGiven: 1},
	}, summary.Monthly)
}

func TestExportPurchasesCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.purchases.Purchase(ctx, "u1", "p2")
	require.NoError(t, err)

	file, err := f.purchases.Export(ctx, models.PurchaseFilter{}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "purchases-20251101.csv", file.Name)
	assert.Equal(t, export.FormatCSV.ContentType(), file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Date,Client,Package,Credits,Amount", lines[0])
	assert.Equal(t, "2025-11-01 12:00,Demo Client,Ten Pack,10,350.00", lines[1])
	assert.Equal(t, "Total,,,15,550.00", lines[3])
}

func TestExportPurchasesPDF(t *testing.T) {
	f := newFixture(t)

	file, err := f.purchases.Export(context.Background(), models.PurchaseFilter{}, export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}
