package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/export"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// PurchaseService sells packages and reports revenue.
type PurchaseService struct {
	store   repository.Store
	events  EventPublisher
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewPurchaseService constructs the purchase service.
func NewPurchaseService(store repository.Store, events EventPublisher, metrics *MetricsService, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = noopEvents{}
	}
	return &PurchaseService{store: store, events: events, metrics: metrics, logger: logger, now: time.Now}
}

// Purchase records the purchase of packageID by userID and credits the
// account in one transaction.
func (s *PurchaseService) Purchase(ctx context.Context, userID, packageID string) (*models.PurchaseResult, error) {
	var result *models.PurchaseResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		pkg, err := tx.Packages().GetByID(ctx, packageID)
		if err != nil {
			return err
		}
		result, err = purchaseInTx(ctx, tx, userID, pkg.ID, pkg.Name, pkg.Credits, pkg.Price, s.now())
		return err
	})
	if err != nil {
		return nil, storageError(err, "failed to purchase package")
	}
	s.afterPurchase(ctx, result)
	return result, nil
}

func (s *PurchaseService) afterPurchase(ctx context.Context, result *models.PurchaseResult) {
	s.metrics.RecordCredits(CreditReasonPurchase, result.Purchase.Credits)
	s.events.Publish(ctx, EventPackagePurchased, map[string]interface{}{
		"purchase_id": result.Purchase.ID,
		"user_id":     result.Purchase.UserID,
		"package_id":  result.Purchase.PackageID,
		"credits":     result.Purchase.Credits,
		"price":       result.Purchase.Price,
		"balance":     result.PackageCredits,
	})
	s.logger.Info("package purchased",
		zap.String("user_id", result.Purchase.UserID),
		zap.String("package_id", result.Purchase.PackageID),
		zap.Int("balance", result.PackageCredits))
}

// purchaseInTx stores an immutable purchase record and increments the
// buyer's credits atomically.
func purchaseInTx(ctx context.Context, tx repository.Store, userID, packageID, packageName string, credits int, price float64, now time.Time) (*models.PurchaseResult, error) {
	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleClient {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only clients can buy packages")
	}

	purchase := models.Purchase{
		ID:          uuid.NewString(),
		UserID:      userID,
		PackageID:   packageID,
		PackageName: packageName,
		Credits:     credits,
		Price:       price,
		Date:        now.UTC(),
	}
	if err := tx.Purchases().Create(ctx, &purchase); err != nil {
		return nil, err
	}
	balance, err := tx.Users().AdjustCredits(ctx, userID, credits)
	if err != nil {
		return nil, err
	}
	return &models.PurchaseResult{Purchase: purchase, PackageCredits: balance}, nil
}

// List returns purchases newest first.
func (s *PurchaseService) List(ctx context.Context, filter models.PurchaseFilter) ([]models.Purchase, error) {
	purchases, err := s.store.Purchases().List(ctx, filter)
	if err != nil {
		return nil, storageError(err, "failed to list purchases")
	}
	return purchases, nil
}

// FinancialSummary aggregates revenue per calendar month (UTC) from
// purchases and counts seats taken in sessions that have already ended.
func (s *PurchaseService) FinancialSummary(ctx context.Context, from, to *time.Time) (*models.FinancialSummary, error) {
	purchases, err := s.store.Purchases().List(ctx, models.PurchaseFilter{From: from, To: to})
	if err != nil {
		return nil, storageError(err, "failed to list purchases")
	}
	sessions, err := s.store.Sessions().List(ctx, models.SessionFilter{From: from, To: to})
	if err != nil {
		return nil, storageError(err, "failed to list sessions")
	}

	months := map[string]*models.FinancialStat{}
	month := func(t time.Time) *models.FinancialStat {
		key := t.UTC().Format("2006-01")
		stat, ok := months[key]
		if !ok {
			stat = &models.FinancialStat{Month: key}
			months[key] = stat
		}
		return stat
	}

	summary := &models.FinancialSummary{TotalPurchases: len(purchases)}
	for _, p := range purchases {
		month(p.Date).Revenue += p.Price
		summary.TotalRevenue += p.Price
	}
	now := s.now()
	for _, session := range sessions {
		if session.EndTime.After(now) {
			continue
		}
		month(session.StartTime).LessonsGiven += len(session.EnrolledUserIDs)
	}

	summary.Monthly = make([]models.FinancialStat, 0, len(months))
	for _, stat := range months {
		summary.Monthly = append(summary.Monthly, *stat)
	}
	sort.Slice(summary.Monthly, func(i, j int) bool { return summary.Monthly[i].Month < summary.Monthly[j].Month })
	return summary, nil
}

// Export renders the purchases ledger as CSV or PDF.
func (s *PurchaseService) Export(ctx context.Context, filter models.PurchaseFilter, format export.Format) (*ExportFile, error) {
	purchases, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx, models.UserFilter{})
	if err != nil {
		return nil, storageError(err, "failed to list users")
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	data := export.Dataset{
		Title:   "Purchases",
		Headers: []string{"Date", "Client", "Package", "Credits", "Amount"},
		Rows:    make([]map[string]string, 0, len(purchases)),
	}
	var total float64
	credits := 0
	for _, p := range purchases {
		data.Rows = append(data.Rows, map[string]string{
			"Date":    p.Date.UTC().Format("2006-01-02 15:04"),
			"Client":  names[p.UserID],
			"Package": p.PackageName,
			"Credits": strconv.Itoa(p.Credits),
			"Amount":  fmt.Sprintf("%.2f", p.Price),
		})
		total += p.Price
		credits += p.Credits
	}
	data.Footer = []map[string]string{{
		"Date":    "Total",
		"Credits": strconv.Itoa(credits),
		"Amount":  fmt.Sprintf("%.2f", total),
	}}

	body, err := export.Render(format, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Name:        fmt.Sprintf("purchases-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        body,
	}, nil
}
