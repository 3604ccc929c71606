package reconciler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/adapter"
	"github.com/feral-file/ff-media-library/internal/domain"
	"github.com/feral-file/ff-media-library/internal/logger"
	"github.com/feral-file/ff-media-library/internal/storage"
	"github.com/feral-file/ff-media-library/internal/storageconfig"
	"github.com/feral-file/ff-media-library/internal/store"
)

const (
	DEFAULT_CONCURRENCY = 8
	DEFAULT_BATCH_SIZE  = 100
)

// ProgressFunc receives the number of processed keys and the total after each key
type ProgressFunc func(current, total int)

// Action is what a pass did with one object key
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// KeyOutcome is the successful outcome of one object key
type KeyOutcome struct {
	Key    string
	Action Action
}

// Result is the summary of a reconciliation pass
type Result struct {
	RunID string `json:"runId"`
	// Synced is the number of object keys whose catalog entry is current after the pass
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	// Skipped is the number of object keys left out because of a metadata or owner failure
	Skipped int `json:"skipped"`
	// Outcomes holds one entry per object key in key order
	Outcomes []domain.Result[KeyOutcome] `json:"-"`
}

// Reconciler brings the catalog in line with the bucket contents
//
//go:generate mockgen -source=reconciler.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Reconciler=MockReconciler
type Reconciler interface {
	// Reconcile runs one pass. ownerIDHint, when it names an active user, owns newly created entries.
	Reconcile(ctx context.Context, ownerIDHint string, progress ProgressFunc) (*Result, error)
}

// Config holds reconciler configuration
type Config struct {
	// Concurrency is the number of parallel metadata fetches
	Concurrency int
	// BatchSize is the number of keys whose metadata is fetched before their upserts run
	BatchSize int
	// HeadMaxRetries bounds the retries of a failed metadata fetch
	HeadMaxRetries uint64
	// HeadRetryInterval is the initial backoff between metadata fetch retries
	HeadRetryInterval time.Duration
}

type reconciler struct {
	config   Config
	resolver storageconfig.Resolver
	gateway  storage.Gateway
	store    store.Store
	purger   adapter.CDNPurger
	clock    adapter.Clock
	pool     pond.ResultPool[headResult]

	mu      sync.Mutex
	running map[string]struct{}
}

type headResult struct {
	info *storage.ObjectInfo
	err  error
}

// New creates a reconciler
func New(cfg Config, resolver storageconfig.Resolver, gateway storage.Gateway, st store.Store, purger adapter.CDNPurger, clock adapter.Clock) Reconciler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DEFAULT_CONCURRENCY
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DEFAULT_BATCH_SIZE
	}
	if cfg.HeadRetryInterval <= 0 {
		cfg.HeadRetryInterval = 200 * time.Millisecond
	}
	if purger == nil {
		purger = adapter.NopPurger{}
	}

	return &reconciler{
		config:   cfg,
		resolver: resolver,
		gateway:  gateway,
		store:    st,
		purger:   purger,
		clock:    clock,
		pool:     pond.NewResultPool[headResult](cfg.Concurrency),
		running:  make(map[string]struct{}),
	}
}

// acquire marks bucket as being reconciled, failing if a pass already runs
func (r *reconciler) acquire(bucket string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[bucket]; ok {
		return nil, domain.ErrSyncInProgress
	}
	r.running[bucket] = struct{}{}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.running, bucket)
	}, nil
}

func (r *reconciler) Reconcile(ctx context.Context, ownerIDHint string, progress ProgressFunc) (*Result, error) {
	cfg, err := r.resolver.GetActiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	release, err := r.acquire(cfg.Endpoint + "/" + cfg.BucketName)
	if err != nil {
		return nil, err
	}
	defer release()

	if progress == nil {
		progress = func(int, int) {}
	}

	startTime := r.clock.Now()
	run := &pass{
		reconciler: r,
		cfg:        cfg,
		progress:   progress,
		result:     &Result{RunID: ulid.MustNewDefault(startTime).String()},
	}

	logger.InfoCtx(ctx, "Starting catalog reconciliation",
		zap.String("run_id", run.result.RunID),
		zap.String("bucket", cfg.BucketName),
	)

	if err := run.execute(ctx, ownerIDHint); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("catalog reconciliation failed: %w", err), zap.String("run_id", run.result.RunID))
		return nil, err
	}

	logger.InfoCtx(ctx, "Catalog reconciliation completed",
		zap.String("run_id", run.result.RunID),
		zap.Duration("duration", r.clock.Since(startTime)),
		zap.Int("synced", run.result.Synced),
		zap.Int("created", run.result.Created),
		zap.Int("updated", run.result.Updated),
		zap.Int("deleted", run.result.Deleted),
		zap.Int("skipped", run.result.Skipped),
	)
	return run.result, nil
}

// pass is the state of one reconciliation run
type pass struct {
	*reconciler
	cfg      *domain.StorageConfig
	progress ProgressFunc
	result   *Result

	hintOwner     string
	adminOwner    string
	adminResolved bool
	purgeURLs     []string
}

func (p *pass) execute(ctx context.Context, ownerIDHint string) error {
	objects, err := p.gateway.ListAll(ctx, *p.cfg, "")
	if err != nil {
		return fmt.Errorf("failed to list bucket: %w", err)
	}

	keys := objectKeys(objects)

	states, err := p.store.ListMediaFileStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if ownerIDHint != "" {
		if err := p.resolveHint(ctx, ownerIDHint); err != nil {
			return err
		}
	}

	existing := make(map[string]store.MediaFileState, len(states))
	for _, s := range states {
		existing[s.ObjectKey] = s
	}

	if err := p.deleteOrphans(ctx, keys, states); err != nil {
		return err
	}

	total := len(keys)
	for start := 0; start < total; start += p.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+p.config.BatchSize, total)
		heads, err := p.fetchMetadata(ctx, keys[start:end])
		if err != nil {
			return err
		}

		for i, key := range keys[start:end] {
			outcome := p.syncKey(ctx, key, heads[i], existing)
			p.record(outcome)
			p.progress(start+i+1, total)
		}
	}

	p.purge(ctx)
	return nil
}

// objectKeys returns the sorted distinct keys of objects without directory markers
func objectKeys(objects []storage.Object) []string {
	seen := make(map[string]struct{}, len(objects))
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		if o.Key == "" || domain.IsDirectoryMarker(o.Key) {
			continue
		}
		if _, ok := seen[o.Key]; ok {
			continue
		}
		seen[o.Key] = struct{}{}
		keys = append(keys, o.Key)
	}
	sort.Strings(keys)
	return keys
}

func (p *pass) resolveHint(ctx context.Context, id string) error {
	user, err := p.store.GetActiveUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load owner %s: %w", id, err)
	}
	if user == nil {
		logger.WarnCtx(ctx, "Ignoring owner hint that is not an active user", zap.String("owner_id", id))
		return nil
	}
	p.hintOwner = user.ID
	return nil
}

func (p *pass) deleteOrphans(ctx context.Context, keys []string, states []store.MediaFileState) error {
	present := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}

	var orphans []string
	for _, s := range states {
		if _, ok := present[s.ObjectKey]; !ok {
			orphans = append(orphans, s.ObjectKey)
			p.purgeURLs = append(p.purgeURLs, s.FileURL)
		}
	}
	if len(orphans) == 0 {
		return nil
	}

	deleted, err := p.store.DeleteMediaFilesByObjectKeys(ctx, orphans)
	if err != nil {
		return fmt.Errorf("failed to delete orphaned catalog entries: %w", err)
	}
	p.result.Deleted = int(deleted)

	logger.InfoCtx(ctx, "Deleted orphaned catalog entries", zap.Int("count", int(deleted)))
	return nil
}

// fetchMetadata heads keys in parallel and returns the results in key order
func (p *pass) fetchMetadata(ctx context.Context, keys []string) ([]headResult, error) {
	group := p.pool.NewGroup()
	for _, key := range keys {
		group.Submit(func() headResult {
			info, err := p.headWithRetry(ctx, key)
			return headResult{info: info, err: err}
		})
	}
	return group.Wait()
}

func (p *pass) headWithRetry(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.HeadRetryInterval
	b.MaxInterval = 5 * time.Second

	var info *storage.ObjectInfo
	operation := func() error {
		var err error
		info, err = p.gateway.Head(ctx, *p.cfg, key)
		if err != nil && !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, p.config.HeadMaxRetries), ctx)); err != nil {
		return nil, err
	}
	return info, nil
}

func (p *pass) syncKey(ctx context.Context, key string, head headResult, existing map[string]store.MediaFileState) domain.Result[KeyOutcome] {
	if head.err != nil {
		logger.WarnCtx(ctx, "Skipping object whose metadata could not be fetched",
			zap.String("key", key),
			zap.Error(head.err),
		)
		return domain.ErrWithKind[KeyOutcome](domain.KindMetadataFetch, fmt.Errorf("failed to fetch metadata of %s: %w", key, head.err))
	}

	contentType := domain.EffectiveContentType(head.info.ContentType, key)
	fileURL := p.cfg.FileURL(key)

	current, found := existing[key]
	if found && current.SizeBytes == head.info.SizeBytes && current.ContentType == contentType && current.FileURL == fileURL {
		return domain.Ok(KeyOutcome{Key: key, Action: ActionUnchanged})
	}

	owner, err := p.ownerFor(ctx, current, found)
	if err != nil {
		logger.WarnCtx(ctx, "Skipping object without an owner", zap.String("key", key), zap.Error(err))
		return domain.Err[KeyOutcome](err)
	}

	fileName := domain.FileNameOf(key)
	title := domain.TitleOf(fileName)
	if original := head.info.Metadata[domain.METADATA_ORIGINAL_FILENAME]; original != "" {
		title = domain.TitleOf(original)
	}
	folder := domain.FolderOf(key)

	_, created, err := p.store.UpsertMediaFile(ctx, store.UpsertMediaFileInput{
		ObjectKey:   key,
		FileName:    fileName,
		FileURL:     fileURL,
		SizeBytes:   head.info.SizeBytes,
		ContentType: contentType,
		Folder:      &folder,
		Title:       title,
		OwnerID:     owner,
	})
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to upsert catalog entry: %w", err), zap.String("key", key))
		return domain.ErrWithKind[KeyOutcome](domain.KindInternal, err)
	}

	if created {
		return domain.Ok(KeyOutcome{Key: key, Action: ActionCreated})
	}

	if current.FileURL != "" {
		p.purgeURLs = append(p.purgeURLs, current.FileURL)
	}
	return domain.Ok(KeyOutcome{Key: key, Action: ActionUpdated})
}

// ownerFor picks the hint, then the current owner, then the first active admin
func (p *pass) ownerFor(ctx context.Context, current store.MediaFileState, found bool) (string, error) {
	if p.hintOwner != "" {
		return p.hintOwner, nil
	}
	if found && current.OwnerID != "" {
		return current.OwnerID, nil
	}

	if !p.adminResolved {
		admin, err := p.store.GetFirstActiveAdmin(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load fallback admin: %w", err)
		}
		p.adminResolved = true
		if admin != nil {
			p.adminOwner = admin.ID
		}
	}
	if p.adminOwner == "" {
		return "", domain.ErrNoUploaderAvailable
	}
	return p.adminOwner, nil
}

func (p *pass) record(outcome domain.Result[KeyOutcome]) {
	p.result.Outcomes = append(p.result.Outcomes, outcome)
	if !outcome.IsOk() {
		p.result.Skipped++
		return
	}
	p.result.Synced++
	switch outcome.Value.Action {
	case ActionCreated:
		p.result.Created++
	case ActionUpdated:
		p.result.Updated++
	}
}

// purge evicts the urls of deleted and changed entries from the CDN. Failures are only logged.
func (p *pass) purge(ctx context.Context) {
	if !p.cfg.CDN.Enabled || len(p.purgeURLs) == 0 {
		return
	}
	if err := p.purger.PurgeFiles(ctx, p.purgeURLs); err != nil {
		logger.WarnCtx(ctx, "Failed to purge CDN cache", zap.Error(err), zap.Int("urls", len(p.purgeURLs)))
	}
}
