package gearimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/trailpack/internal/logging"
	"github.com/JonMunkholm/trailpack/internal/spreadsheet"
	"github.com/google/uuid"
)

const (
	DefaultMaxFileSize = 10 << 20
	DefaultUploadDir   = "tmp/imports"

	// sampleRows is how many data rows the mapping form shows.
	sampleRows = 5
)

// OpenFunc decodes the file at path, choosing the format from originalName.
type OpenFunc func(path, originalName string) (SheetReader, error)

func openSpreadsheet(path, originalName string) (SheetReader, error) {
	sheet, err := spreadsheet.Open(path, originalName)
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	UploadDir      string
	MaxFileSize    int64
	HeaderScanRows int
	CommitTimeout  time.Duration
	Limiter        *ImportLimiter
	OpenSheet      OpenFunc
	Now            func() time.Time
}

// Service runs the import wizard.
type Service struct {
	store    Store
	sessions SessionStore
	limiter  *ImportLimiter
	open     OpenFunc
	now      func() time.Time

	uploadDir      string
	maxFileSize    int64
	headerScanRows int
	commitTimeout  time.Duration
}

// NewService creates an import service.
func NewService(store Store, sessions SessionStore, opts Options) *Service {
	s := &Service{
		store:          store,
		sessions:       sessions,
		limiter:        opts.Limiter,
		open:           opts.OpenSheet,
		now:            opts.Now,
		uploadDir:      opts.UploadDir,
		maxFileSize:    opts.MaxFileSize,
		headerScanRows: opts.HeaderScanRows,
		commitTimeout:  opts.CommitTimeout,
	}
	if s.limiter == nil {
		s.limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime)
	}
	if s.open == nil {
		s.open = openSpreadsheet
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.uploadDir == "" {
		s.uploadDir = DefaultUploadDir
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = DefaultMaxFileSize
	}
	if s.headerScanRows <= 0 {
		s.headerScanRows = DefaultHeaderScanRows
	}
	return s
}

// MappingForm is what the mapping step shows: header names, suggested and
// current mapping, the first data rows and the category list.
type MappingForm struct {
	SessionID   string           `json:"session_id"`
	Filename    string           `json:"filename"`
	Step        Step             `json:"step"`
	HeaderRow   int              `json:"header_row"`
	RowCount    int              `json:"row_count"`
	Headers     []string         `json:"headers"`
	Suggested   map[Field]string `json:"suggested"`
	Mapping     map[Field]string `json:"mapping,omitempty"`
	WeightUnit  WeightUnit       `json:"weight_unit"`
	SampleRows  [][]string       `json:"sample_rows"`
	Categories  []Category       `json:"categories"`
	Fields      []Field          `json:"fields"`
	WeightUnits []WeightUnit     `json:"weight_units"`
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Upload stores the file, detects its header row and starts a session.
func (s *Service) Upload(ctx context.Context, userID, filename string, r io.Reader) (*MappingForm, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if r == nil || filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, ErrNoFile
	}
	if !spreadsheet.Supported(filename) {
		return nil, fmt.Errorf("%w: %q", spreadsheet.ErrUnknownFileType, filename)
	}

	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	now := s.now()
	name := fmt.Sprintf("%s_%d%s", unsafeFileChars.ReplaceAllString(userID, "_"), now.UnixNano(), spreadsheet.Ext(filename))
	path := filepath.Join(s.uploadDir, name)

	if err := s.persist(path, r); err != nil {
		return nil, err
	}

	sheet, err := s.open(path, filename)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if sheet.RowCount() == 0 {
		os.Remove(path)
		return nil, ErrEmptyFile
	}

	header := DetectHeader(sheet, s.headerScanRows)
	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Filename:   filename,
		FilePath:   path,
		HeaderRow:  header.Row,
		Headers:    header.Names(),
		WeightUnit: UnitKilograms,
		Step:       StepUploaded,
		CreatedAt:  now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		os.Remove(path)
		return nil, err
	}

	logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID).Info("import uploaded",
		"filename", filename,
		"rows", sheet.RowCount(),
		"header_row", header.Row,
		"headers", len(sess.Headers),
		"ip", IPAddressFromContext(ctx),
	)

	return s.mappingForm(ctx, sess, sheet)
}

// persist copies r to path, enforcing the size limit.
func (s *Service) persist(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		err = fmt.Errorf("store upload: %w", err)
	case n > s.maxFileSize:
		err = fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	case n == 0:
		err = ErrEmptyFile
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}

// MappingForm returns the mapping step for an existing session.
func (s *Service) MappingForm(ctx context.Context, userID, sessionID string) (*MappingForm, error) {
	sess, sheet, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.mappingForm(ctx, sess, sheet)
}

// ChangeHeaderRow overrides the detected header row. Mapping and category
// decisions are discarded.
func (s *Service) ChangeHeaderRow(ctx context.Context, userID, sessionID string, row int) (*MappingForm, error) {
	sess, sheet, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > sheet.RowCount() {
		return nil, fmt.Errorf("%w: row %d is outside 1-%d", ErrInvalidHeaderRow, row, sheet.RowCount())
	}

	header := NewHeaderRow(sheet, row)
	if len(header.Names()) == 0 {
		return nil, fmt.Errorf("%w: row %d is empty", ErrInvalidHeaderRow, row)
	}

	sess.HeaderRow = row
	sess.Headers = header.Names()
	sess.Mapping = nil
	sess.UnknownCategories = nil
	sess.CategoryResolutions = nil
	sess.Step = StepUploaded
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	return s.mappingForm(ctx, sess, sheet)
}

func (s *Service) mappingForm(ctx context.Context, sess *Session, sheet SheetReader) (*MappingForm, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	header := NewHeaderRow(sheet, sess.HeaderRow)
	var samples [][]string
	for i := header.Row + 1; i <= sheet.RowCount() && len(samples) < sampleRows; i++ {
		samples = append(samples, sheet.Row(i))
	}

	return &MappingForm{
		SessionID:   sess.ID,
		Filename:    sess.Filename,
		Step:        sess.Step,
		HeaderRow:   sess.HeaderRow,
		RowCount:    sheet.RowCount(),
		Headers:     header.Names(),
		Suggested:   SuggestMapping(header.Names()),
		Mapping:     sess.Mapping,
		WeightUnit:  sess.WeightUnit,
		SampleRows:  samples,
		Categories:  categories,
		Fields:      Fields,
		WeightUnits: WeightUnits,
	}, nil
}

// MappingRequest is the submitted mapping step.
type MappingRequest struct {
	Mapping    map[string]string `json:"mapping"`
	WeightUnit string            `json:"weight_unit"`
}

// MappingResult tells the caller whether category resolution is needed.
type MappingResult struct {
	SessionID         string     `json:"session_id"`
	Step              Step       `json:"step"`
	UnknownCategories []string   `json:"unknown_categories"`
	Categories        []Category `json:"categories,omitempty"`
}

// SubmitMapping validates the mapping and looks for category values that
// need a decision.
func (s *Service) SubmitMapping(ctx context.Context, userID, sessionID string, req MappingRequest) (*MappingResult, error) {
	mapping, err := ParseMapping(req.Mapping)
	if err != nil {
		return nil, err
	}
	if err := ValidateMapping(mapping); err != nil {
		return nil, err
	}
	unit, err := ParseWeightUnit(req.WeightUnit)
	if err != nil {
		return nil, err
	}

	sess, sheet, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	header := NewHeaderRow(sheet, sess.HeaderRow)
	cols := BuildColumnMap(header, mapping)
	if _, ok := cols.Column(FieldName); !ok {
		return nil, fmt.Errorf("%w: column %q not found in header row %d", ErrMappingInvalid, mapping[FieldName], header.Row)
	}

	var unknown []string
	if col, ok := cols.Column(FieldCategory); ok {
		unknown, err = DetectUnknownCategories(ctx, s.store, sheet, header, col)
		if err != nil {
			return nil, err
		}
	}

	sess.Mapping = mapping
	sess.WeightUnit = unit
	sess.UnknownCategories = unknown
	sess.CategoryResolutions = nil
	sess.Step = StepMapped
	if len(unknown) > 0 {
		sess.Step = StepCategoriesUnresolved
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	result := &MappingResult{
		SessionID:         sess.ID,
		Step:              sess.Step,
		UnknownCategories: unknown,
	}
	if len(unknown) > 0 {
		if result.Categories, err = s.store.ListCategories(ctx); err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
	}

	logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID).Info("import mapping saved",
		"columns", len(cols),
		"weight_unit", unit,
		"unknown_categories", len(unknown),
	)

	return result, nil
}

// ResolutionResult lists the categories created for "create" resolutions.
type ResolutionResult struct {
	SessionID string     `json:"session_id"`
	Step      Step       `json:"step"`
	Created   []Category `json:"created"`
}

// ResolveCategories records a decision for every unknown category value:
// "skip", "create" or the id of an existing category. Requested categories
// are created before the session advances.
func (s *Service) ResolveCategories(ctx context.Context, userID, sessionID string, resolutions map[string]string) (*ResolutionResult, error) {
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepCategoriesUnresolved && sess.Step != StepCategoriesResolved {
		return nil, fmt.Errorf("%w: no categories to resolve in step %s", ErrInvalidStep, sess.Step)
	}

	decided := make(map[string]string, len(sess.UnknownCategories))
	var missing []string
	for _, raw := range sess.UnknownCategories {
		choice := strings.TrimSpace(resolutions[raw])
		switch strings.ToLower(choice) {
		case "":
			missing = append(missing, fmt.Sprintf("%q", raw))
			continue
		case ResolutionSkip, ResolutionCreate:
			decided[raw] = strings.ToLower(choice)
			continue
		}

		id, ok := parseCategoryID(choice)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a valid choice for %q", ErrCategoriesUnresolved, choice, raw)
		}
		c, err := s.store.FindCategoryByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find category %d: %w", id, err)
		}
		if c == nil {
			return nil, fmt.Errorf("%w: category %d does not exist", ErrCategoriesUnresolved, id)
		}
		decided[raw] = choice
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCategoriesUnresolved, strings.Join(missing, ", "))
	}

	created, err := EnsureRequested(ctx, s.store, decided)
	if err != nil {
		return nil, err
	}

	sess.CategoryResolutions = decided
	sess.Step = StepCategoriesResolved
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID).Info("import categories resolved",
		"resolved", len(decided),
		"created", len(created),
	)

	return &ResolutionResult{SessionID: sess.ID, Step: sess.Step, Created: created}, nil
}

// Abandon ends a wizard without importing.
func (s *Service) Abandon(ctx context.Context, userID, sessionID string) error {
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	s.teardown(ctx, sess)

	logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID).Info("import abandoned")
	return nil
}

// load fetches the session and reopens its file. A session whose file is
// gone is deleted and reported as expired.
func (s *Service) load(ctx context.Context, userID, sessionID string) (*Session, SheetReader, error) {
	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	sheet, err := s.open(sess.FilePath, sess.Filename)
	if errors.Is(err, fs.ErrNotExist) {
		s.sessions.Delete(ctx, sess.ID)
		return nil, nil, fmt.Errorf("%w: uploaded file is gone", ErrSessionExpired)
	}
	if err != nil {
		return nil, nil, err
	}

	// The sweeper ages uploads by mtime, so every step restarts the clock.
	now := time.Now()
	if err := os.Chtimes(sess.FilePath, now, now); err != nil {
		logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID).Warn("failed to touch upload", "error", err)
	}
	return sess, sheet, nil
}

// teardown removes the uploaded file and the session. It runs even when
// ctx is already cancelled.
func (s *Service) teardown(ctx context.Context, sess *Session) {
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithFields(ctx, "user_id", sess.UserID, "session_id", sess.ID)

	if err := os.Remove(sess.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove upload", "path", sess.FilePath, "error", err)
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		logger.Warn("failed to delete import session", "error", err)
	}
}

// LimiterStatus reports commit concurrency.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running commits finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
