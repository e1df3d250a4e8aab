package ingestion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/perfwatch/ingest/internal/domain"
	"github.com/perfwatch/ingest/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func newTestService() (*Service, *stubJobRepo, *stubRecordRepo, *stubOfficerRepo) {
	jobRepo := &stubJobRepo{jobs: map[uuid.UUID]*domain.ImportJob{}}
	recordRepo := &stubRecordRepo{}
	officerRepo := &stubOfficerRepo{officers: map[string]*domain.Officer{}}
	service := NewService(jobRepo, recordRepo, officerRepo, stubWeightsRepo{})
	return service, jobRepo, recordRepo, officerRepo
}

func TestIngestDetectionsPartialFailure(t *testing.T) {
	service, jobRepo, recordRepo, officerRepo := newTestService()

	data := `badge,crimeCategory,valueRecovered
B1,Cyber Fraud,5000
B2,Theft,200
,Cyber,
`
	result, err := service.Ingest(context.Background(), Request{
		FileName:   "detections.csv",
		Source:     domain.SourceCCTNSDetections,
		Module:     domain.ModuleDetections,
		UploadedBy: "analyst1",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if result.Status != domain.ImportStatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if result.TotalRows != 3 || result.ProcessedRows != 2 || result.FailedRows != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Fatalf("expected one error on row 3, got %+v", result.Errors)
	}
	if result.Errors[0].Message != ErrMissingBadgeID.Error() {
		t.Fatalf("unexpected error message %q", result.Errors[0].Message)
	}

	job := jobRepo.jobs[result.ImportJobID]
	if job == nil || job.Status != domain.ImportStatusCompleted {
		t.Fatalf("job not finalized: %+v", job)
	}
	if job.ProcessedRows+job.FailedRows != job.TotalRows {
		t.Fatalf("terminal invariant violated: %+v", job)
	}

	if len(recordRepo.created) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recordRepo.created))
	}

	// Only the cyber-categorised detection counts toward cyberResolved.
	if got := officerRepo.officers["B1"].CyberResolved; got != 1 {
		t.Fatalf("expected B1 cyberResolved=1, got %d", got)
	}
	if got := officerRepo.officers["B2"].CyberResolved; got != 0 {
		t.Fatalf("expected B2 cyberResolved=0, got %d", got)
	}
}

func TestIngestZeroRowsCompletes(t *testing.T) {
	service, jobRepo, recordRepo, _ := newTestService()

	result, err := service.Ingest(context.Background(), Request{
		FileName:   "header-only.csv",
		Source:     domain.SourceCSV,
		Module:     domain.ModuleDetections,
		UploadedBy: "analyst1",
		Data:       strings.NewReader("badge,crimeCategory\n"),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if result.Status != domain.ImportStatusCompleted || result.TotalRows != 0 {
		t.Fatalf("expected completed zero-row job, got %+v", result)
	}
	if len(recordRepo.created) != 0 {
		t.Fatalf("expected no records")
	}
	if job := jobRepo.jobs[result.ImportJobID]; job.Status != domain.ImportStatusCompleted {
		t.Fatalf("job not completed: %+v", job)
	}
}

func TestIngestSpreadsheetConvictions(t *testing.T) {
	service, _, recordRepo, officerRepo := newTestService()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Badge ID", "Case Number", "Conviction Date", "Crime Type", "Court Name"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"PB1", "CR-1", "2025-01-10", "Theft", "District Court"})
	_ = f.SetSheetRow(sheet, "A3", &[]any{"PB2", "CR-2", "2025-01-11", "Fraud", "High Court"})
	_ = f.SetSheetRow(sheet, "A4", &[]any{"PB1", "CR-3", "2025-01-12", "Burglary", "District Court"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write xlsx: %v", err)
	}

	result, err := service.Ingest(context.Background(), Request{
		FileName:   "convictions.xlsx",
		Source:     domain.SourceCCTNSConvictions,
		Module:     domain.ModuleConvictions,
		UploadedBy: "analyst2",
		Data:       bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if result.Status != domain.ImportStatusCompleted || result.FailedRows != 0 || result.ProcessedRows != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(recordRepo.created) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recordRepo.created))
	}
	for _, rec := range recordRepo.created {
		if rec.ImportJobID != result.ImportJobID {
			t.Fatalf("record references wrong job: %s", rec.ImportJobID)
		}
	}

	// Each conviction adds exactly one closed case.
	if got := officerRepo.officers["PB1"].CaseClosed; got != 2 {
		t.Fatalf("expected PB1 caseClosed=2, got %d", got)
	}
	if got := officerRepo.officers["PB2"].CaseClosed; got != 1 {
		t.Fatalf("expected PB2 caseClosed=1, got %d", got)
	}
}

func TestIngestUnsupportedFormatIsHardFailure(t *testing.T) {
	service, jobRepo, recordRepo, _ := newTestService()

	_, err := service.Ingest(context.Background(), Request{
		FileName:   "notes.docx",
		Source:     domain.SourceManual,
		Module:     domain.ModuleConvictions,
		UploadedBy: "analyst3",
		Data:       strings.NewReader("irrelevant"),
	})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}

	if len(recordRepo.created) != 0 {
		t.Fatalf("no records should be created")
	}

	if len(jobRepo.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobRepo.jobs))
	}
	for _, job := range jobRepo.jobs {
		if job.Status != domain.ImportStatusFailed {
			t.Fatalf("expected failed job, got %s", job.Status)
		}
		if len(job.Errors) != 1 || job.Errors[0].Field != "file_parsing" {
			t.Fatalf("expected single synthetic error, got %+v", job.Errors)
		}
	}
}

func TestIngestAllRowsFailedMarksJobFailed(t *testing.T) {
	service, jobRepo, _, _ := newTestService()

	data := "name,crimeCategory\nAsha,Theft\nRavi,Fraud\n"
	result, err := service.Ingest(context.Background(), Request{
		FileName:   "no-badges.csv",
		Source:     domain.SourceCSV,
		Module:     domain.ModuleDetections,
		UploadedBy: "analyst4",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("row failures must not be a hard error: %v", err)
	}

	if result.Status != domain.ImportStatusFailed {
		t.Fatalf("expected failed status, got %s", result.Status)
	}
	if result.ProcessedRows != 0 || result.FailedRows != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	job := jobRepo.jobs[result.ImportJobID]
	if job.ProcessedRows+job.FailedRows != job.TotalRows {
		t.Fatalf("terminal invariant violated: %+v", job)
	}
}

func TestIngestRepeatDoublesAggregates(t *testing.T) {
	// Re-uploading the same file counts the same rows again: the
	// aggregate is a function of which runs executed, not of stored
	// records. Expected current behaviour, not a bug.
	service, _, _, officerRepo := newTestService()

	data := "badge,Cases Handled\nPB9,5\n"
	for i := 0; i < 2; i++ {
		_, err := service.Ingest(context.Background(), Request{
			FileName:   "drives.csv",
			Source:     domain.SourceCCTNSSpecialDrives,
			Module:     domain.ModuleSpecialDrives,
			UploadedBy: "analyst5",
			Data:       strings.NewReader(data),
		})
		if err != nil {
			t.Fatalf("ingest %d returned error: %v", i+1, err)
		}
	}

	if got := officerRepo.officers["PB9"].CaseClosed; got != 10 {
		t.Fatalf("expected caseClosed=10 after double ingest, got %d", got)
	}
}

func TestIngestPersistenceErrorIsRowLevel(t *testing.T) {
	service, jobRepo, recordRepo, _ := newTestService()
	recordRepo.failBadge = "PB2"

	data := "badge,caseNumber\nPB1,CR-1\nPB2,CR-2\nPB3,CR-3\n"
	result, err := service.Ingest(context.Background(), Request{
		FileName:   "convictions.csv",
		Source:     domain.SourceCCTNSConvictions,
		Module:     domain.ModuleConvictions,
		UploadedBy: "analyst6",
		Data:       strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("a single row's persistence failure must not abort the batch: %v", err)
	}

	if result.Status != domain.ImportStatusCompleted || result.ProcessedRows != 2 || result.FailedRows != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 2 || result.Errors[0].Field != "general" {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	job := jobRepo.jobs[result.ImportJobID]
	if job.ProcessedRows+job.FailedRows != job.TotalRows {
		t.Fatalf("terminal invariant violated: %+v", job)
	}
}

type stubJobRepo struct {
	jobs map[uuid.UUID]*domain.ImportJob
}

func (s *stubJobRepo) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	stored := job
	s.jobs[job.ID] = &stored
	return job, nil
}

func (s *stubJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	job, ok := s.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	if job.Status != domain.ImportStatusPending {
		return errors.New("job is not pending")
	}
	job.Status = domain.ImportStatusProcessing
	return nil
}

func (s *stubJobRepo) SetTotalRows(ctx context.Context, id uuid.UUID, total int) error {
	job, ok := s.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	job.TotalRows = total
	return nil
}

func (s *stubJobRepo) Finalize(ctx context.Context, id uuid.UUID, status domain.ImportStatus, processed, failed int, errs []domain.RowError) error {
	job, ok := s.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	if job.Status.Terminal() {
		return errors.New("job already terminal")
	}
	job.Status = status
	job.ProcessedRows = processed
	job.FailedRows = failed
	job.Errors = errs
	return nil
}

func (s *stubJobRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error) {
	if job, ok := s.jobs[id]; ok {
		return *job, nil
	}
	return domain.ImportJob{}, errors.New("job not found")
}

func (s *stubJobRepo) List(ctx context.Context, filter repository.ImportJobFilter) ([]domain.ImportJob, error) {
	return nil, errors.New("not implemented")
}

type stubRecordRepo struct {
	created   []domain.PerformanceRecord
	failBadge string
}

func (s *stubRecordRepo) Create(ctx context.Context, rec domain.PerformanceRecord) (domain.PerformanceRecord, error) {
	if s.failBadge != "" && rec.BadgeID == s.failBadge {
		return domain.PerformanceRecord{}, errors.New("insert failed")
	}
	s.created = append(s.created, rec)
	return rec, nil
}

func (s *stubRecordRepo) ListByImportJob(ctx context.Context, jobID uuid.UUID, limit int) ([]domain.PerformanceRecord, error) {
	return nil, errors.New("not implemented")
}

type stubOfficerRepo struct {
	officers map[string]*domain.Officer
}

func (s *stubOfficerRepo) ApplyIncrement(ctx context.Context, inc domain.OfficerIncrement, weights domain.KPIWeights) error {
	officer, ok := s.officers[inc.BadgeID]
	if !ok {
		officer = &domain.Officer{BadgeID: inc.BadgeID, Name: domain.PlaceholderName(inc.BadgeID)}
		s.officers[inc.BadgeID] = officer
	}
	officer.CaseClosed += inc.CaseClosed
	officer.CyberResolved += inc.CyberResolved
	officer.TotalScore = float64(officer.CaseClosed)*weights.CaseClosed +
		float64(officer.CyberResolved)*weights.CyberResolved
	return nil
}

func (s *stubOfficerRepo) GetByBadgeID(ctx context.Context, badgeID string) (domain.Officer, error) {
	if officer, ok := s.officers[badgeID]; ok {
		return *officer, nil
	}
	return domain.Officer{}, errors.New("officer not found")
}

func (s *stubOfficerRepo) List(ctx context.Context, filter repository.OfficerFilter) ([]domain.Officer, error) {
	return nil, errors.New("not implemented")
}

type stubWeightsRepo struct{}

func (stubWeightsRepo) Get(ctx context.Context) (domain.KPIWeights, error) {
	return domain.DefaultKPIWeights(), nil
}

var _ repository.ImportJobRepository = (*stubJobRepo)(nil)
var _ repository.RecordRepository = (*stubRecordRepo)(nil)
var _ repository.OfficerRepository = (*stubOfficerRepo)(nil)
var _ repository.KPIWeightsRepository = (stubWeightsRepo{})
