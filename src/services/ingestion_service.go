package services

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/budgetflow/backend/src/categorizer"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
	"github.com/username/budgetflow/backend/src/parsers"
	"github.com/username/budgetflow/backend/src/processors"
	"github.com/username/budgetflow/backend/src/security/validation"
	"github.com/username/budgetflow/backend/src/storage"
)

const (
	ckLatestReport = "agg_latest_upload_report_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ingestionServiceImpl struct {
	store        *storage.Store
	classifier   *categorizer.Classifier
	detector     *processors.DuplicateDetector
	emailService EmailService
	reportCache  *cache.Cache

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewIngestionService wires the pipeline together. All collaborators are
// injected; the service holds no global state beyond its per-user locks and
// report cache.
func NewIngestionService(
	store *storage.Store,
	classifier *categorizer.Classifier,
	detector *processors.DuplicateDetector,
	emailService EmailService,
	reportCache *cache.Cache,
) IngestionService {
	return &ingestionServiceImpl{
		store:        store,
		classifier:   classifier,
		detector:     detector,
		emailService: emailService,
		reportCache:  reportCache,
		userLocks:    make(map[int64]*sync.Mutex),
	}
}

// lockForUser serializes duplicate-check-then-insert per user, so two
// concurrent uploads of overlapping files cannot both admit the same "new"
// transaction. Different users proceed fully in parallel.
func (s *ingestionServiceImpl) lockForUser(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.userLocks[userID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.userLocks[userID] = l
	return l
}

// IngestStatement runs one upload through the pipeline:
// parse -> classify -> duplicate-check -> persist -> report.
//
// Row-scoped problems degrade that row and continue. A whole-file parse
// failure aborts before any batch record exists. Infrastructure failures
// roll back the batch transaction and mark the batch failed.
func (s *ingestionServiceImpl) IngestStatement(file io.Reader, userID int64, filename string, fileSize int64) (*models.UploadReport, error) {
	overallStartTime := time.Now()
	logger.L.Info("IngestStatement START", "userID", userID, "filename", filename, "size", fileSize)

	// --- Parse (whole-file failures abort here, before any persistence) ---
	reader, err := parsers.NewStatementReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	normalized, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	// --- Classify ---
	// Descriptions are sanitized here, before duplicate detection, so the
	// candidates compare equal to the sanitized rows already in the store.
	candidates := make([]models.ClassifiedTransaction, 0, len(normalized))
	for _, tx := range normalized {
		tx.Description = validation.SanitizeForFormulaInjection(validation.StripUnprintable(tx.Description))
		category := s.classifier.Classify(tx.Description, tx.SourceCategory, tx.Direction)
		candidates = append(candidates, models.ClassifiedTransaction{
			NormalizedTransaction: tx,
			Category:              category,
			Type:                  s.classifier.TypeOf(tx.Direction, category),
		})
	}

	// The duplicate check and the inserts it guards must see a consistent
	// per-user snapshot; serialize them.
	userLock := s.lockForUser(userID)
	userLock.Lock()
	defer userLock.Unlock()

	// Prior same-name batches double as re-upload evidence later.
	sameNameBatches, err := s.store.FindBatchesByFilename(userID, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	uploadedAt := time.Now().UTC()
	batch := &models.UploadBatch{
		PublicID:      uuid.NewString(),
		UserID:        userID,
		Filename:      filename,
		FileSizeBytes: fileSize,
		UploadedAt:    uploadedAt,
		Status:        models.BatchStatusProcessing,
	}
	if err := s.store.CreateUploadBatch(batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	// --- Duplicate detection against all prior history ---
	detection, err := s.detector.Detect(userID, candidates)
	if err != nil {
		s.markBatchFailed(batch.ID)
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	// --- Persist admitted transactions + batch finalization atomically ---
	persisted, failedInserts, status, err := s.persistBatch(batch, detection.Admitted)
	if err != nil {
		s.markBatchFailed(batch.ID)
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	batch.Status = status
	batch.AdmittedCount = len(persisted)

	// --- Derived analytics (pure computation over the admission result) ---
	report := s.buildReport(batch, candidates, persisted, detection.Duplicates, failedInserts, sameNameBatches)

	s.reportCache.Set(fmt.Sprintf(ckLatestReport, userID), report, DefaultCacheExpiration)

	if report.BudgetAnalysis != nil && report.BudgetAnalysis.IsOverBudget {
		s.sendBudgetAlert(userID, *report.BudgetAnalysis)
	}

	logger.L.Info("IngestStatement END",
		"userID", userID,
		"batch", batch.PublicID,
		"admitted", batch.AdmittedCount,
		"duplicates", len(detection.Duplicates),
		"failedInserts", len(failedInserts),
		"duration", time.Since(overallStartTime))
	return report, nil
}

// persistBatch inserts each admitted transaction individually and finalizes
// the batch record, all inside one sql.Tx. A single insert failure is
// recorded and skipped; only transaction-scope failures abort the batch.
func (s *ingestionServiceImpl) persistBatch(batch *models.UploadBatch, admitted []models.ClassifiedTransaction) ([]models.StoredTransaction, []string, string, error) {
	dbTx, err := s.store.Begin()
	if err != nil {
		return nil, nil, "", fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer dbTx.Rollback()

	createdAt := time.Now().UTC()
	var persisted []models.StoredTransaction
	var failedInserts []string

	for _, tx := range admitted {
		id, err := s.store.InsertTransaction(dbTx, batch.UserID, batch.ID, tx, createdAt)
		if err != nil {
			logger.L.Error("Failed to insert admitted transaction",
				"userID", batch.UserID, "description", tx.Description, "error", err)
			failedInserts = append(failedInserts, fmt.Sprintf("%s %s: %v",
				tx.TransactionDate.Format("2006-01-02"), tx.Description, err))
			continue
		}
		persisted = append(persisted, models.StoredTransaction{
			ID:                    id,
			UserID:                batch.UserID,
			UploadBatchID:         batch.ID,
			CreatedAt:             createdAt,
			ClassifiedTransaction: tx,
		})
	}

	status := models.BatchStatusCompleted
	if len(failedInserts) > 0 {
		status = models.BatchStatusCompletedWithErrors
	}
	if err := s.store.FinalizeUploadBatch(dbTx, batch.ID, status, len(persisted)); err != nil {
		return nil, nil, "", err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, nil, "", fmt.Errorf("committing batch transaction: %w", err)
	}
	return persisted, failedInserts, status, nil
}

func (s *ingestionServiceImpl) buildReport(
	batch *models.UploadBatch,
	candidates []models.ClassifiedTransaction,
	persisted []models.StoredTransaction,
	duplicates []models.DuplicateMatch,
	failedInserts []string,
	sameNameBatches []models.UploadBatch,
) *models.UploadReport {
	// Overlap evidence needs the batch records the duplicates point at.
	batchIDSet := make(map[int64]bool)
	for _, d := range duplicates {
		if d.MatchedUploadBatchID != 0 {
			batchIDSet[d.MatchedUploadBatchID] = true
		}
	}
	ids := make([]int64, 0, len(batchIDSet))
	for id := range batchIDSet {
		ids = append(ids, id)
	}
	batchesByID, err := s.store.GetBatchesByIDs(ids)
	if err != nil {
		// Overlap evidence is best-effort; the admission decisions stand.
		logger.L.Warn("Could not load matched batch records for overlap analysis", "error", err)
		batchesByID = map[int64]models.UploadBatch{}
	}

	overlap := processors.AnalyzeOverlap(duplicates, len(candidates), batch.Filename, sameNameBatches, batchesByID)

	period := batch.UploadedAt.Format("2006-01")
	budget, err := s.store.GetBudgetSnapshot(batch.UserID, period)
	if err != nil {
		logger.L.Warn("Could not load budget snapshot", "userID", batch.UserID, "period", period, "error", err)
		budget = nil
	}
	admittedTxs := make([]models.ClassifiedTransaction, 0, len(persisted))
	for _, st := range persisted {
		admittedTxs = append(admittedTxs, st.ClassifiedTransaction)
	}
	impact := processors.ComputeBudgetImpact(admittedTxs, budget)

	breakdown := make(map[string]models.CategoryTotal)
	for _, tx := range admittedTxs {
		entry := breakdown[tx.Category]
		entry.Total = entry.Total.Add(tx.Amount)
		entry.Count++
		breakdown[tx.Category] = entry
	}

	dupInfo := models.DuplicateInfo{
		DuplicatesFound:         len(duplicates),
		DuplicatesSkipped:       len(duplicates),
		NewTransactionsAdded:    len(persisted),
		TotalTransactionsInFile: len(candidates),
		DuplicateDetails:        duplicates,
		FileOverlapAnalysis:     overlap,
	}
	if dupInfo.DuplicateDetails == nil {
		dupInfo.DuplicateDetails = []models.DuplicateMatch{}
	}

	report := &models.UploadReport{
		UploadID:              batch.PublicID,
		Filename:              batch.Filename,
		Size:                  batch.FileSizeBytes,
		UploadDate:            batch.UploadedAt,
		Status:                batch.Status,
		ProcessedTransactions: persisted,
		Summary:               summarizeFile(candidates),
		CategoryBreakdown:     breakdown,
		BudgetAnalysis:        impact,
		Insights:              processors.BuildInsights(overlap, dupInfo, impact, breakdown),
		DuplicateInfo:         dupInfo,
		FailedInserts:         failedInserts,
	}
	if report.ProcessedTransactions == nil {
		report.ProcessedTransactions = []models.StoredTransaction{}
	}
	if report.Insights == nil {
		report.Insights = []string{}
	}
	return report
}

// summarizeFile totals every transaction in the file, admitted or not.
func summarizeFile(candidates []models.ClassifiedTransaction) models.FileSummary {
	summary := models.FileSummary{
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		NetAmount:    decimal.Zero,
	}
	for _, tx := range candidates {
		switch tx.Direction {
		case models.DirectionDebit:
			summary.TotalDebits = summary.TotalDebits.Add(tx.Amount)
		case models.DirectionCredit:
			summary.TotalCredits = summary.TotalCredits.Add(tx.Amount)
		}
		if summary.DateRange == nil {
			summary.DateRange = &models.DateRange{Start: tx.TransactionDate, End: tx.TransactionDate}
			continue
		}
		if tx.TransactionDate.Before(summary.DateRange.Start) {
			summary.DateRange.Start = tx.TransactionDate
		}
		if tx.TransactionDate.After(summary.DateRange.End) {
			summary.DateRange.End = tx.TransactionDate
		}
	}
	summary.NetAmount = summary.TotalCredits.Sub(summary.TotalDebits)
	return summary
}

func (s *ingestionServiceImpl) markBatchFailed(batchID int64) {
	if err := s.store.FinalizeUploadBatch(s.store.DB(), batchID, models.BatchStatusFailed, 0); err != nil {
		logger.L.Error("Failed to mark upload batch as failed", "batchID", batchID, "error", err)
	}
}

func (s *ingestionServiceImpl) sendBudgetAlert(userID int64, impact models.BudgetImpact) {
	if s.emailService == nil {
		return
	}
	user, err := models.GetUserByID(s.store.DB(), userID)
	if err != nil {
		logger.L.Warn("Cannot send budget alert, user lookup failed", "userID", userID, "error", err)
		return
	}
	go func() {
		if err := s.emailService.SendBudgetAlertEmail(user.Email, user.Username, impact); err != nil {
			logger.L.Error("Failed to send budget alert email", "userID", userID, "error", err)
		}
	}()
}

// GetLatestReport returns the most recent ingestion report for a user, if
// one is still cached.
func (s *ingestionServiceImpl) GetLatestReport(userID int64) (*models.UploadReport, bool) {
	if cached, found := s.reportCache.Get(fmt.Sprintf(ckLatestReport, userID)); found {
		return cached.(*models.UploadReport), true
	}
	return nil, false
}

// InvalidateUserCache clears cached reports for a user, e.g. after their
// transactions were deleted.
func (s *ingestionServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckLatestReport, userID))
	logger.L.Info("Invalidated report cache for user", "userID", userID)
}
