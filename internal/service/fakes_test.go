package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/model"
	"traffic-analytics-service/internal/repository"
)

type fakeVideos struct {
	mu        sync.Mutex
	videos    map[uuid.UUID]*model.Video
	attachErr error
	attaches  int
	analyses  *fakeAnalyses
	// rival, when set, is attached by a concurrent writer just before the next AttachBucket.
	rival *uuid.UUID
}

func newFakeVideos(videos ...model.Video) *fakeVideos {
	f := &fakeVideos{videos: make(map[uuid.UUID]*model.Video)}
	for i := range videos {
		v := videos[i]
		f.videos[v.ID] = &v
	}
	return f
}

func (f *fakeVideos) get(id uuid.UUID) model.Video {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.videos[id]
}

func (f *fakeVideos) FindByID(_ context.Context, id uuid.UUID) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *v
	return &out, nil
}

func (f *fakeVideos) ListUngrouped(context.Context) ([]model.PendingVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PendingVideo
	for _, v := range f.videos {
		if v.Status == model.VideoCompleted && v.BucketID == nil {
			pending := model.PendingVideo{Video: *v}
			if f.analyses != nil {
				pending.Analysis, _ = f.analyses.FindByVideo(context.Background(), v.ID)
			}
			out = append(out, pending)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Video.UploadedAt.Before(out[j].Video.UploadedAt) })
	return out, nil
}

func (f *fakeVideos) CountUngrouped(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, v := range f.videos {
		if v.Status == model.VideoCompleted && v.BucketID == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeVideos) AttachBucket(_ context.Context, videoID, bucketID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return false, f.attachErr
	}
	v, ok := f.videos[videoID]
	if ok && f.rival != nil && v.BucketID == nil {
		v.BucketID, f.rival = f.rival, nil
	}
	if !ok || v.BucketID != nil {
		return false, nil
	}
	id := bucketID
	v.BucketID = &id
	f.attaches++
	return true, nil
}

func (f *fakeVideos) ClearBucket(_ context.Context, videoID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return repository.ErrNotFound
	}
	v.BucketID = nil
	return nil
}

func (f *fakeVideos) BackfillDate(_ context.Context, videoID uuid.UUID, date datatypes.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.videos[videoID]; ok && v.RecordedDate == nil {
		d := date
		v.RecordedDate = &d
	}
	return nil
}

func (f *fakeVideos) SetStatus(_ context.Context, videoID uuid.UUID, status model.VideoStatus, processedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return repository.ErrNotFound
	}
	v.Status = status
	if processedAt != nil {
		t := *processedAt
		v.ProcessedAt = &t
	}
	return nil
}

type bucketKey struct {
	location uuid.UUID
	date     string
}

// fakeBuckets enforces the (location, date) uniqueness the table index provides.
type fakeBuckets struct {
	mu      sync.Mutex
	byKey   map[bucketKey]*model.LocationDateBucket
	byID    map[uuid.UUID]*model.LocationDateBucket
	creates int
}

func newFakeBuckets() *fakeBuckets {
	return &fakeBuckets{
		byKey: make(map[bucketKey]*model.LocationDateBucket),
		byID:  make(map[uuid.UUID]*model.LocationDateBucket),
	}
}

func (f *fakeBuckets) GetOrCreate(_ context.Context, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := bucketKey{locationID, model.FormatDate(date)}
	if b, ok := f.byKey[key]; ok {
		out := *b
		return &out, false, nil
	}
	b := &model.LocationDateBucket{ID: uuid.New(), LocationID: locationID, Date: date}
	f.byKey[key] = b
	f.byID[b.ID] = b
	f.creates++
	out := *b
	return &out, true, nil
}

func (f *fakeBuckets) FindByID(_ context.Context, id uuid.UUID) (*model.LocationDateBucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBuckets) FindByLocationDate(_ context.Context, locationID uuid.UUID, date datatypes.Date) (*model.LocationDateBucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byKey[bucketKey{locationID, model.FormatDate(date)}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBuckets) ListWithStats(_ context.Context, locationID *uuid.UUID) ([]model.BucketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BucketSummary
	for _, b := range f.byID {
		if locationID != nil && b.LocationID != *locationID {
			continue
		}
		out = append(out, model.BucketSummary{ID: b.ID, LocationID: b.LocationID, Date: b.Date})
	}
	return out, nil
}

type fakeAnalyses struct {
	mu         sync.Mutex
	byVideo    map[uuid.UUID]*model.AnalysisRecord
	samples    []model.AnalysisSample
	samplesErr error
	lastSince  time.Time
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{byVideo: make(map[uuid.UUID]*model.AnalysisRecord)}
}

func (f *fakeAnalyses) add(record model.AnalysisRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byVideo[record.VideoID] = &record
}

func (f *fakeAnalyses) Create(_ context.Context, record *model.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byVideo[record.VideoID]; ok {
		return repository.ErrDuplicate
	}
	r := *record
	f.byVideo[record.VideoID] = &r
	return nil
}

func (f *fakeAnalyses) FindByVideo(_ context.Context, videoID uuid.UUID) (*model.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byVideo[videoID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeAnalyses) SamplesSince(_ context.Context, since time.Time, locationID *uuid.UUID) ([]model.AnalysisSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSince = since
	if f.samplesErr != nil {
		return nil, f.samplesErr
	}
	var out []model.AnalysisSample
	for _, s := range f.samples {
		if s.AnalyzedAt.Before(since) {
			continue
		}
		if locationID != nil && (s.LocationID == nil || *s.LocationID != *locationID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakePredictions struct {
	mu       sync.Mutex
	byScope  map[string][]model.TrafficPrediction
	replaces int
}

func newFakePredictions() *fakePredictions {
	return &fakePredictions{byScope: make(map[string][]model.TrafficPrediction)}
}

func (f *fakePredictions) ReplaceForScope(_ context.Context, scope model.PredictionScope, predictions []model.TrafficPrediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaces++
	f.byScope[scope.Key()] = append([]model.TrafficPrediction(nil), predictions...)
	return nil
}

func (f *fakePredictions) ForDate(ctx context.Context, date datatypes.Date, locationID *uuid.UUID) ([]model.TrafficPrediction, error) {
	return f.ForDates(ctx, date, date, locationID)
}

func (f *fakePredictions) ForDates(_ context.Context, from, to datatypes.Date, locationID *uuid.UUID) ([]model.TrafficPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TrafficPrediction
	for _, preds := range f.byScope {
		for _, p := range preds {
			d := time.Time(p.PredictionDate)
			if d.Before(time.Time(from)) || d.After(time.Time(to)) {
				continue
			}
			if locationID != nil && (p.LocationID == nil || *p.LocationID != *locationID) {
				continue
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := time.Time(out[i].PredictionDate), time.Time(out[j].PredictionDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].HourOfDay < out[j].HourOfDay
	})
	return out, nil
}

type fakeLocations map[uuid.UUID]bool

func (f fakeLocations) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f[id], nil
}

type fakeCache struct {
	mu        sync.Mutex
	values    map[string][]byte
	published []any
	cleared   []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = data
	return nil
}

func (f *fakeCache) DeleteMatching(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, pattern)
	f.values = make(map[string][]byte)
	return nil
}

func (f *fakeCache) Publish(_ context.Context, _ string, message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, message)
	return nil
}

type fakeProgress struct {
	mu      sync.Mutex
	entries map[string]model.Progress
	history []int
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{entries: make(map[string]model.Progress)}
}

func (f *fakeProgress) Update(_ context.Context, videoID string, percent int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[videoID] = model.Progress{VideoID: videoID, Percent: percent, Message: message}
	f.history = append(f.history, percent)
	return nil
}

func (f *fakeProgress) Complete(_ context.Context, videoID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[videoID] = model.Progress{VideoID: videoID, Percent: 100, Message: message, Done: true}
	f.history = append(f.history, 100)
	return nil
}

func (f *fakeProgress) Fail(_ context.Context, videoID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[videoID] = model.Progress{VideoID: videoID, Message: message, Done: true}
	return nil
}

func (f *fakeProgress) Get(_ context.Context, videoID string) (model.Progress, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.entries[videoID]
	return p, ok, nil
}

type fakeDetector struct {
	result   model.DetectionResult
	err      error
	calls    int
	onDetect func(model.Video)
}

func (f *fakeDetector) Detect(_ context.Context, video model.Video) (model.DetectionResult, error) {
	f.calls++
	if f.onDetect != nil {
		f.onDetect(video)
	}
	if f.err != nil {
		return model.DetectionResult{}, f.err
	}
	r := f.result
	r.VideoID = video.ID
	return r, nil
}
