package archive

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/ledger-archive/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/ledger-archive/internal/jobs"
	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

const (
	defaultTimeout    = 30 * time.Minute
	defaultRetryDelay = 500 * time.Millisecond
)

// ReportBuilder produces one complete report document.
type ReportBuilder interface {
	Kind() reports.Kind
	Build(ctx context.Context, req reports.Request) (string, error)
}

// BooksSource loads the lookups and settings of the ledger.
type BooksSource interface {
	LoadBooks(ctx context.Context) (ledger.Books, error)
}

// Refresher is implemented by requesters that cache ledger responses.
// Export refreshes it first so a run never reads data older than its start.
type Refresher interface {
	Bump(ctx context.Context) error
}

// StaticBooks serves a fixed snapshot of the books.
type StaticBooks ledger.Books

// LoadBooks returns the snapshot.
func (b StaticBooks) LoadBooks(context.Context) (ledger.Books, error) {
	return ledger.Books(b), nil
}

// Config wires the orchestrator collaborators.
type Config struct {
	Requester ledger.Requester
	Reports   []ReportBuilder
	Books     BooksSource
	// Root overrides the archive root configured in the ledger settings.
	Root       string
	Version    string
	Locale     string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	Now        func() time.Time
}

// Orchestrator exports accounting periods into static archive sites.
type Orchestrator struct {
	requester  ledger.Requester
	reports    []ReportBuilder
	books      BooksSource
	root       string
	version    string
	money      ledger.Money
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
	now        func() time.Time
	tpl        *template.Template

	onFinalize func()
}

// NewOrchestrator validates cfg and parses the page templates.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Requester == nil {
		return nil, errors.New("archive: requester required")
	}
	if cfg.Books == nil {
		return nil, errors.New("archive: books source required")
	}
	tpl, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("archive: parse templates: %w", err)
	}
	o := &Orchestrator{
		requester:  cfg.Requester,
		reports:    cfg.Reports,
		books:      cfg.Books,
		root:       cfg.Root,
		version:    cfg.Version,
		money:      ledger.NewMoney(cfg.Locale),
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		now:        cfg.Now,
		tpl:        tpl,
	}
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}
	if o.retries < 0 {
		o.retries = 0
	}
	if o.retryDelay <= 0 {
		o.retryDelay = defaultRetryDelay
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.version == "" {
		o.version = "dev"
	}
	return o, nil
}

// Export archives period. On failure the returned error matches
// ErrIncomplete and the previously committed archive is left as it was.
func (o *Orchestrator) Export(ctx context.Context, period ledger.Period) (Result, error) {
	started := o.now()
	runID := uuid.NewString()
	result := Result{RunID: runID, Tag: period.Tag}
	logger := o.logger.With(slog.String("period", period.Tag), slog.String("run_id", runID))

	fail := func(out *Output, err error) (Result, error) {
		inc := &IncompleteError{Tag: period.Tag, Cause: err}
		if out != nil {
			inc.Staging = out.Staging()
			if abandonErr := out.Abandon(err, o.now()); abandonErr != nil {
				logger.Error("write incomplete marker", slog.Any("error", abandonErr))
			}
		}
		logger.Error("archive export failed", slog.Any("error", err))
		result.Duration = o.now().Sub(started)
		return result, inc
	}

	if err := period.Validate(); err != nil {
		return fail(nil, err)
	}
	if cached, ok := o.requester.(Refresher); ok {
		if err := cached.Bump(ctx); err != nil {
			return fail(nil, fmt.Errorf("%w: refresh cached queries: %w", ErrRemoteQuery, err))
		}
	}
	books, err := o.books.LoadBooks(ctx)
	if err != nil {
		return fail(nil, fmt.Errorf("%w: load books: %w", ErrRemoteQuery, err))
	}
	root := o.root
	if root == "" {
		root = books.Settings.ArchiveRoot
	}
	if root == "" {
		return fail(nil, fmt.Errorf("%w: no archive root in ARCHIVE_ROOT or ledger settings", ErrFilesystem))
	}
	logger.Info("archive export started", slog.String("root", root), slog.String("period_range", period.Label()))

	out, err := NewOutput(root, period.Tag, runID)
	if err != nil {
		return fail(nil, err)
	}
	if _, err := copyAssets(out); err != nil {
		return fail(out, err)
	}
	if books.Settings.HasLogo() {
		logo, err := encodeLogo(books.Settings.Logo)
		if err != nil {
			logger.Warn("ledger logo skipped", slog.Any("error", err))
			result.Warnings = append(result.Warnings, Warning{Message: "ledger logo skipped: " + err.Error()})
		} else {
			if err := out.WriteFile(logoFile, logo); err != nil {
				return fail(out, err)
			}
			result.Logo = true
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	r := &run{
		o:              o,
		ctx:            runCtx,
		parent:         ctx,
		logger:         logger,
		period:         period,
		books:          books,
		out:            out,
		nav:            NewNavigationBuilder(o.tpl, books.Settings, result.Logo, period),
		names:          NewNameMap(period.Tag),
		events:         make(chan event),
		done:           make(chan struct{}),
		pendingReports: len(o.reports),
		result:         &result,
	}
	r.pages = NewVoucherPageRenderer(o.tpl, books, o.money, period.Tag, started, logger)
	err = r.execute()
	close(r.done)
	if err != nil {
		return fail(out, err)
	}

	dir, err := out.Commit()
	if err != nil {
		return fail(out, err)
	}
	result.Dir = dir
	result.Duration = o.now().Sub(started)
	o.record(result)
	logger.Info("archive export finished",
		slog.String("dir", dir),
		slog.Int("vouchers", result.Vouchers),
		slog.Int("attachments", result.Attachments),
		slog.Int("reports", result.Reports),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (o *Orchestrator) record(res Result) {
	o.metrics.AddArchived("voucher", res.Vouchers)
	o.metrics.AddArchived("attachment", res.Attachments)
	o.metrics.AddArchived("report", res.Reports)
	o.metrics.AddWarnings(len(res.Warnings))
}

// query performs req with bounded retry and linear backoff.
func (o *Orchestrator) query(ctx context.Context, req ledger.Request) (ledger.Payload, error) {
	var lastErr error
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * o.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ledger.Payload{}, ctx.Err()
			case <-timer.C:
			}
		}
		payload, err := o.requester.Request(ctx, req)
		if err == nil {
			return payload, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ledger.Payload{}, ctxErr
		}
		lastErr = err
		if errors.Is(err, ledger.ErrUnknownPath) || errors.Is(err, ledger.ErrNotFound) {
			break
		}
	}
	return ledger.Payload{}, fmt.Errorf("%w: %s: %w", ErrRemoteQuery, req.Path, lastErr)
}

type eventKind int

const (
	eventReport eventKind = iota + 1
	eventVoucherList
	eventVoucher
	eventAttachment
)

// event is the single response of one outstanding request.
type event struct {
	kind    eventKind
	report  reports.Kind
	html    string
	payload ledger.Payload
	index   int
	id      int64
	err     error
}

// run is the state of one export. Every field below is owned by the loop
// goroutine; request goroutines only post events.
type run struct {
	o      *Orchestrator
	ctx    context.Context
	parent context.Context
	logger *slog.Logger
	period ledger.Period
	books  ledger.Books
	out    *Output
	nav    *NavigationBuilder
	pages  *VoucherPageRenderer
	names  *NameMap
	files  map[string]int64
	events chan event
	done   chan struct{}

	pendingReports int
	listed         bool
	queue          []ledger.QueuedVoucher
	cursor         int
	voucherBusy    bool
	attachments    []int64
	attachmentBusy bool
	finalized      bool

	result *Result
}

func (r *run) execute() error {
	for _, b := range r.o.reports {
		r.requestReport(b)
	}
	r.requestVoucherList()
	for !r.finalized {
		select {
		case <-r.ctx.Done():
			return r.contextError(r.ctx.Err())
		case ev := <-r.events:
			if err := r.handle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && r.parent.Err() == nil {
		return fmt.Errorf("%w after %s", ErrTimeout, r.o.timeout)
	}
	return err
}

func (r *run) post(ev event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *run) requestReport(b ReportBuilder) {
	req := reports.Request{Start: r.period.Start, End: r.period.End, AsOf: r.period.End}
	go func() {
		html, err := b.Build(r.ctx, req)
		r.post(event{kind: eventReport, report: b.Kind(), html: html, err: err})
	}()
}

func (r *run) requestVoucherList() {
	req := ledger.Request{
		Path: ledger.PathVouchers,
		Attributes: map[string]string{
			"start": r.period.Start.Format("2006-01-02"),
			"end":   r.period.End.Format("2006-01-02"),
			"order": "voucher",
		},
	}
	go func() {
		payload, err := r.o.query(r.ctx, req)
		r.post(event{kind: eventVoucherList, payload: payload, err: err})
	}()
}

func (r *run) fetchNextVoucher() {
	index := r.cursor
	id := r.queue[index].ID
	r.cursor++
	r.voucherBusy = true
	go func() {
		payload, err := r.o.query(r.ctx, ledger.Request{Path: ledger.VoucherPath(id)})
		r.post(event{kind: eventVoucher, payload: payload, index: index, id: id, err: err})
	}()
}

func (r *run) fetchNextAttachment() {
	id := r.attachments[0]
	r.attachments = r.attachments[1:]
	r.attachmentBusy = true
	go func() {
		payload, err := r.o.query(r.ctx, ledger.Request{Path: ledger.AttachmentPath(id)})
		r.post(event{kind: eventAttachment, payload: payload, id: id, err: err})
	}()
}

func (r *run) handle(ev event) error {
	if ev.err != nil {
		if errors.Is(ev.err, context.Canceled) || errors.Is(ev.err, context.DeadlineExceeded) {
			if ctxErr := r.ctx.Err(); ctxErr != nil {
				return r.contextError(ctxErr)
			}
		}
		if ev.kind == eventReport {
			return fmt.Errorf("%w: %s: %w", ErrReport, ev.report, ev.err)
		}
		return ev.err
	}
	switch ev.kind {
	case eventReport:
		return r.handleReport(ev)
	case eventVoucherList:
		return r.handleVoucherList(ev)
	case eventVoucher:
		return r.handleVoucher(ev)
	case eventAttachment:
		return r.handleAttachment(ev)
	}
	return fmt.Errorf("archive: unexpected event %d", ev.kind)
}

func (r *run) handleReport(ev event) error {
	nav, err := r.nav.Render(r.nav.ForIndex())
	if err != nil {
		return fmt.Errorf("archive: render navigation: %w", err)
	}
	if err := r.out.WriteFile(ev.report.FileName(), []byte(decorateReport(ev.html, nav))); err != nil {
		return err
	}
	r.pendingReports--
	r.result.Reports++
	r.logger.Debug("report archived", slog.String("report", string(ev.report)))
	return r.checkBarrier()
}

func (r *run) handleVoucherList(ev event) error {
	list, err := ledger.DecodeVoucherList(ev.payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRemoteQuery, ledger.PathVouchers, err)
	}
	r.queue = append(r.queue, list...)
	r.listed = true
	r.nav.SetVouchers(r.queue)
	r.logger.Debug("voucher list received", slog.Int("vouchers", len(list)))
	if r.cursor < len(r.queue) {
		r.fetchNextVoucher()
		return nil
	}
	return r.afterVoucherDrain()
}

func (r *run) handleVoucher(ev event) error {
	v, err := ledger.DecodeVoucher(ev.payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRemoteQuery, ledger.VoucherPath(ev.id), err)
	}
	queued := r.queue[ev.index]
	name := VoucherFileName(r.period.Tag, queued.Series, queued.Sequence)
	if other, taken := r.files[name]; taken {
		return fmt.Errorf("%w: vouchers %d and %d both map to %s", ErrDuplicateVoucher, other, queued.ID, name)
	}
	r.files[name] = queued.ID
	files, fresh := r.names.Assign(queued, v.Attachments)
	r.attachments = append(r.attachments, fresh...)

	page, err := r.pages.Render(v, files, r.nav.ForVoucher(ev.index))
	if err != nil {
		return err
	}
	if err := r.out.WriteFile(path.Join(vouchersDir, name), page.HTML); err != nil {
		return err
	}
	r.result.Vouchers++
	r.result.Warnings = append(r.result.Warnings, page.Warnings...)
	r.voucherBusy = false
	r.logger.Debug("voucher archived", slog.Int64("voucher_id", v.ID), slog.String("file", name))

	if r.cursor < len(r.queue) {
		r.fetchNextVoucher()
		return nil
	}
	return r.afterVoucherDrain()
}

func (r *run) afterVoucherDrain() error {
	if len(r.attachments) > 0 && !r.attachmentBusy {
		r.fetchNextAttachment()
		return nil
	}
	return r.checkBarrier()
}

func (r *run) handleAttachment(ev event) error {
	data, err := ledger.DecodeBytes(ev.payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRemoteQuery, ledger.AttachmentPath(ev.id), err)
	}
	name, ok := r.names.Name(ev.id)
	if !ok {
		return fmt.Errorf("archive: attachment %d has no assigned name", ev.id)
	}
	if err := r.out.WriteFile(path.Join(attachmentsDir, name), data); err != nil {
		return err
	}
	r.result.Attachments++
	r.attachmentBusy = false
	if len(r.attachments) > 0 {
		r.fetchNextAttachment()
		return nil
	}
	return r.checkBarrier()
}

// drained re-derives all three legs of the completion barrier.
func (r *run) drained() bool {
	reportsDone := r.pendingReports == 0
	vouchersDone := r.listed && r.cursor == len(r.queue) && !r.voucherBusy
	attachmentsDone := len(r.attachments) == 0 && !r.attachmentBusy
	return reportsDone && vouchersDone && attachmentsDone
}

func (r *run) checkBarrier() error {
	if r.finalized || !r.drained() {
		return nil
	}
	r.finalized = true
	return r.finalize()
}

func (r *run) finalize() error {
	if r.o.onFinalize != nil {
		r.o.onFinalize()
	}
	if r.period.ClosedBy(r.books.Settings.ClosedThrough) {
		if err := r.copyFinalization(); err != nil {
			return err
		}
	}
	page, err := renderIndex(r.o.tpl, r.nav.ForIndex(), r.books.Settings, r.result.Logo, r.period, r.o.now(), r.o.version)
	if err != nil {
		return err
	}
	return r.out.WriteFile("index.html", page)
}

// copyFinalization stores the finalization document when the ledger has one.
func (r *run) copyFinalization() error {
	req := ledger.Request{
		Path: ledger.PathFinalization,
		Attributes: map[string]string{
			"tag":   r.period.Tag,
			"start": r.period.Start.Format("2006-01-02"),
			"end":   r.period.End.Format("2006-01-02"),
		},
	}
	payload, err := r.o.query(r.ctx, req)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrUnknownPath) {
			r.logger.Info("no finalization document", slog.Any("error", err))
			return nil
		}
		return err
	}
	data, err := ledger.DecodeBytes(payload)
	if err == nil && len(data) == 0 {
		err = errors.New("empty document")
	}
	if err != nil {
		r.logger.Warn("finalization document skipped", slog.Any("error", err))
		r.result.Warnings = append(r.result.Warnings, Warning{Message: "finalization document skipped: " + err.Error()})
		return nil
	}
	return r.out.WriteFile(finalizationFile, data)
}

const stylesheetLink = `<link rel="stylesheet" type="text/css" href="arkisto.css">`

// decorateReport adds the archive stylesheet before </head> and the
// navigation bar right after the opening body tag.
func decorateReport(doc, nav string) string {
	if i := indexFold(doc, "</head>"); i >= 0 {
		doc = doc[:i] + stylesheetLink + "\n" + doc[i:]
	} else {
		doc = stylesheetLink + "\n" + doc
	}
	if i := indexFold(doc, "<body"); i >= 0 {
		if end := strings.IndexByte(doc[i:], '>'); end >= 0 {
			at := i + end + 1
			return doc[:at] + "\n" + nav + doc[at:]
		}
	}
	at := len(stylesheetLink) + 1
	if i := indexFold(doc, "</head>"); i >= 0 {
		at = i + len("</head>")
	}
	return doc[:at] + nav + doc[at:]
}

// indexFold is strings.Index ignoring ASCII case. Offsets are into s itself;
// tag is ASCII so no byte of a multi-byte rune can match it.
func indexFold(s, tag string) int {
	n := len(tag)
	for i := 0; i+n <= len(s); i++ {
		if asciiEqualFold(s[i:i+n], tag) {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
