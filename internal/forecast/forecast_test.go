package forecast

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"traffic-analytics-service/internal/model"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleAt(ts time.Time, vehicles int) model.AnalysisSample {
	return model.AnalysisSample{AnalysisID: uuid.New(), TotalVehicles: vehicles, AnalyzedAt: ts}
}

func startAt(hour int) *datatypes.Time {
	t := datatypes.NewTime(hour, 0, 0, 0)
	return &t
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestShapeFactor(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{0, 0.3}, {5, 0.3},
		{6, 0.8},
		{7, 1.8}, {9, 1.8},
		{10, 1.2}, {15, 1.2},
		{16, 1.6}, {19, 1.6},
		{20, 0.8}, {23, 0.8},
	}
	for _, tt := range tests {
		if got := ShapeFactor(tt.hour); got != tt.want {
			t.Errorf("ShapeFactor(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestBuildProfileMondayMorning(t *testing.T) {
	samples := []model.AnalysisSample{
		sampleAt(monday.Add(8*time.Hour), 40),
		sampleAt(monday.Add(8*time.Hour+10*time.Minute), 60),
		sampleAt(monday.Add(8*time.Hour+20*time.Minute), 50),
	}
	profile := BuildProfile(samples, time.Time{}, time.UTC)

	cell := profile.Cell(0, 8)
	if !approx(cell.Mean, 50) {
		t.Errorf("Mean = %v, want 50", cell.Mean)
	}
	if !approx(cell.Confidence, 0.3) {
		t.Errorf("Confidence = %v, want 0.3", cell.Confidence)
	}
	if cell.Samples != 3 {
		t.Errorf("Samples = %d, want 3", cell.Samples)
	}

	// Within two hours of 08:00 the records still count.
	if c := profile.Cell(0, 10); c.Samples != 3 {
		t.Errorf("cell(0,10).Samples = %d, want 3", c.Samples)
	}

	far := profile.Cell(0, 12)
	if far.Samples != 0 || !approx(far.Mean, 50*1.2) || far.Confidence != FallbackConfidence {
		t.Errorf("cell(0,12) = %+v, want day mean scaled by 1.2", far)
	}

	tuesday := profile.Cell(1, 17)
	if tuesday.Samples != 0 || !approx(tuesday.Mean, 50*1.6) || tuesday.Confidence != FallbackConfidence {
		t.Errorf("cell(1,17) = %+v, want overall mean scaled by 1.6", tuesday)
	}

	if profile.RecordCount != 3 || !approx(profile.OverallMean, 50) {
		t.Errorf("RecordCount = %d, OverallMean = %v", profile.RecordCount, profile.OverallMean)
	}
}

func TestBuildProfileConfidenceCap(t *testing.T) {
	var samples []model.AnalysisSample
	for i := 0; i < 12; i++ {
		samples = append(samples, sampleAt(monday.Add(14*time.Hour+time.Duration(i)*time.Minute), 10))
	}
	profile := BuildProfile(samples, time.Time{}, time.UTC)
	if c := profile.Cell(0, 14); c.Confidence != 0.9 || c.Samples != 12 {
		t.Errorf("cell = %+v, want confidence capped at 0.9", c)
	}
}

func TestBuildProfilePrefersVideoStart(t *testing.T) {
	s := sampleAt(monday.Add(23*time.Hour), 30)
	s.VideoStartTime = startAt(2)

	profile := BuildProfile([]model.AnalysisSample{s}, time.Time{}, time.UTC)
	if c := profile.Cell(0, 2); c.Samples != 1 {
		t.Errorf("cell(0,2).Samples = %d, want 1", c.Samples)
	}
	if c := profile.Cell(0, 23); c.Samples != 0 {
		t.Errorf("cell(0,23).Samples = %d, want 0", c.Samples)
	}
	// No wraparound across midnight.
	if c := profile.Cell(0, 0); c.Samples != 1 {
		t.Errorf("cell(0,0).Samples = %d, want 1", c.Samples)
	}
}

func TestBuildProfileWindowAndTimezone(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	old := sampleAt(monday.AddDate(0, 0, -40), 500)
	// Sunday 20:00 UTC is Monday 04:00 in Manila.
	recent := sampleAt(monday.Add(-4*time.Hour), 20)

	profile := BuildProfile([]model.AnalysisSample{old, recent}, monday.AddDate(0, 0, -30), manila)
	if profile.RecordCount != 1 {
		t.Fatalf("RecordCount = %d, want 1", profile.RecordCount)
	}
	if c := profile.Cell(0, 4); c.Samples != 1 {
		t.Errorf("cell(0,4).Samples = %d, want 1", c.Samples)
	}
	if c := profile.Cell(6, 20); c.Samples != 0 {
		t.Errorf("cell(6,20).Samples = %d, want 0", c.Samples)
	}
}

func TestBuildProfileEmpty(t *testing.T) {
	profile := BuildProfile(nil, time.Time{}, time.UTC)
	if profile.RecordCount != 0 || profile.OverallMean != 0 {
		t.Errorf("profile = %+v", profile)
	}
	if got := ComputeThresholds(profile); got != DefaultThresholds {
		t.Errorf("thresholds = %+v, want defaults", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{15, 20, 35, 40, 50}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 15},
		{25, 20},
		{40, 29},
		{50, 35},
		{100, 50},
	}
	for _, tt := range tests {
		if got := Percentile(values, tt.p); !approx(got, tt.want) {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("Percentile(nil) = %v, want 0", got)
	}
}

func TestThresholdsFromSample(t *testing.T) {
	got := ThresholdsFromSample([]float64{0, 20, 40, 70, 100})
	want := model.CongestionThresholds{VeryLow: 0, Low: 20, Medium: 40, High: 70, Severe: 100}
	if got != want {
		t.Errorf("thresholds = %+v, want %+v", got, want)
	}

	if got := ThresholdsFromSample(nil); got != DefaultThresholds {
		t.Errorf("empty sample = %+v, want defaults", got)
	}
}

func TestThresholdsNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		values := make([]float64, 1+rng.Intn(168))
		for i := range values {
			values[i] = rng.Float64() * 300
		}
		th := ThresholdsFromSample(values)
		if !(th.VeryLow >= 0 && th.VeryLow <= th.Low && th.Low <= th.Medium && th.Medium <= th.High && th.High <= th.Severe) {
			t.Fatalf("run %d: thresholds not ordered: %+v", run, th)
		}
	}
}

func TestClassify(t *testing.T) {
	th := model.CongestionThresholds{VeryLow: 0, Low: 20, Medium: 40, High: 70, Severe: 100}
	tests := []struct {
		count float64
		want  model.CongestionLevel
	}{
		{0, model.CongestionVeryLow},
		{19, model.CongestionVeryLow},
		{20, model.CongestionLow},
		{40, model.CongestionMedium},
		{69, model.CongestionMedium},
		{70, model.CongestionHigh},
		{100, model.CongestionSevere},
		{1000, model.CongestionSevere},
	}
	for _, tt := range tests {
		if got := Classify(tt.count, th); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.count, got, tt.want)
		}
	}
}

func TestPlan(t *testing.T) {
	samples := []model.AnalysisSample{
		sampleAt(monday.Add(8*time.Hour), 40),
		sampleAt(monday.Add(8*time.Hour), 60),
		sampleAt(monday.Add(8*time.Hour), 50),
	}
	profile := BuildProfile(samples, time.Time{}, time.UTC)
	thresholds := ComputeThresholds(profile)

	locationID := uuid.New()
	scope := model.PredictionScope{LocationID: &locationID}
	generatedAt := monday.AddDate(0, 0, 6).Add(12 * time.Hour)
	today := model.CalendarDate(generatedAt, time.UTC) // Sunday

	predictions := Plan(profile, thresholds, today, 7, scope, generatedAt)
	if len(predictions) != 7*24 {
		t.Fatalf("len = %d, want 168", len(predictions))
	}

	seen := make(map[string]bool)
	for _, p := range predictions {
		key := model.FormatDate(p.PredictionDate) + HourLabel(p.HourOfDay)
		if seen[key] {
			t.Fatalf("duplicate prediction for %s", key)
		}
		seen[key] = true

		if p.LocationID == nil || *p.LocationID != locationID {
			t.Errorf("LocationID = %v, want %v", p.LocationID, locationID)
		}
		if p.ModelVersion != model.ModelVersionHourlyPatterns {
			t.Errorf("ModelVersion = %q", p.ModelVersion)
		}
		if p.PredictedVehicleCount != math.Trunc(p.PredictedVehicleCount) {
			t.Errorf("count %v is not an integer", p.PredictedVehicleCount)
		}
		if p.ConfidenceLower > p.PredictedVehicleCount || p.ConfidenceUpper < p.PredictedVehicleCount {
			t.Errorf("interval [%v, %v] does not contain %v", p.ConfidenceLower, p.ConfidenceUpper, p.PredictedVehicleCount)
		}
	}

	first := predictions[0]
	if model.FormatDate(first.PredictionDate) != "2024-01-08" || first.DayOfWeek != 0 {
		t.Errorf("first prediction date = %s dow %d, want 2024-01-08 Monday", model.FormatDate(first.PredictionDate), first.DayOfWeek)
	}

	rush := predictions[8]
	if rush.PredictedVehicleCount != 50 || !approx(rush.ConfidenceScore, 0.3) {
		t.Errorf("monday 08:00 = %v @ %v, want 50 @ 0.3", rush.PredictedVehicleCount, rush.ConfidenceScore)
	}
	if !approx(rush.ConfidenceLower, 35) || !approx(rush.ConfidenceUpper, 65) {
		t.Errorf("interval = [%v, %v], want [35, 65]", rush.ConfidenceLower, rush.ConfidenceUpper)
	}

	noon := predictions[12]
	if noon.PredictedVehicleCount != 60 || noon.ConfidenceScore != PlanFallbackConfidence {
		t.Errorf("monday 12:00 = %v @ %v, want 60 @ 0.4", noon.PredictedVehicleCount, noon.ConfidenceScore)
	}
}

func TestPlanRoundsHalfToEven(t *testing.T) {
	var profile model.HourlyProfile
	profile.RecordCount = 6
	profile.Cells[0][9] = model.ProfileCell{Mean: 2.5, Confidence: 0.6, Samples: 6}
	profile.Cells[0][10] = model.ProfileCell{Mean: 3.5, Confidence: 0.6, Samples: 6}

	today := model.CalendarDate(monday.AddDate(0, 0, -1), time.UTC)
	predictions := Plan(profile, DefaultThresholds, today, 1, model.PredictionScope{}, monday)

	if got := predictions[9].PredictedVehicleCount; got != 2 {
		t.Errorf("2.5 rounded to %v, want 2", got)
	}
	if got := predictions[10].PredictedVehicleCount; got != 4 {
		t.Errorf("3.5 rounded to %v, want 4", got)
	}
	if predictions[9].LocationID != nil {
		t.Errorf("general scope should have no location")
	}
}

func TestPlanNonPositiveHorizon(t *testing.T) {
	if got := Plan(model.HourlyProfile{}, DefaultThresholds, datatypes.Date(monday), 0, model.PredictionScope{}, monday); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func prediction(date datatypes.Date, hour int, vehicles, confidence float64) model.TrafficPrediction {
	return model.TrafficPrediction{
		ID:                    uuid.New(),
		PredictionDate:        date,
		HourOfDay:             hour,
		PredictedVehicleCount: vehicles,
		ConfidenceScore:       confidence,
		PredictedCongestion:   model.CongestionMedium,
	}
}

func TestTopPeaks(t *testing.T) {
	date := datatypes.Date(monday)
	preds := []model.TrafficPrediction{
		prediction(date, 17, 90, 0.5),
		prediction(date, 8, 120, 0.5),
		prediction(date, 3, 10, 0.5),
		prediction(date, 7, 90, 0.5),
		prediction(date, 12, 60, 0.5),
	}

	peaks := TopPeaks(preds, 3)
	if len(peaks) != 3 {
		t.Fatalf("len = %d, want 3", len(peaks))
	}
	wantHours := []int{8, 7, 17}
	for i, h := range wantHours {
		if peaks[i].Hour != h {
			t.Errorf("peaks[%d].Hour = %d, want %d", i, peaks[i].Hour, h)
		}
	}
	if peaks[0].Label != "08:00" {
		t.Errorf("Label = %q, want 08:00", peaks[0].Label)
	}

	if got := TopPeaks(preds[:2], 3); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := TopPeaks(nil, 3); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestTopPeaksOneEntryPerHourAcrossLocations(t *testing.T) {
	date := datatypes.Date(monday)
	north, south := uuid.New(), uuid.New()
	at := func(loc uuid.UUID, hour int, vehicles float64) model.TrafficPrediction {
		p := prediction(date, hour, vehicles, 0.5)
		p.LocationID = &loc
		return p
	}
	preds := []model.TrafficPrediction{
		at(north, 8, 120), at(south, 8, 150),
		at(north, 17, 110), at(south, 17, 100),
		at(north, 12, 60), at(south, 12, 70),
	}

	peaks := TopPeaks(preds, 3)
	if len(peaks) != 3 {
		t.Fatalf("len = %d, want 3", len(peaks))
	}
	wantHours := []int{8, 17, 12}
	wantLocations := []uuid.UUID{south, north, south}
	for i := range wantHours {
		if peaks[i].Hour != wantHours[i] {
			t.Errorf("peaks[%d].Hour = %d, want %d", i, peaks[i].Hour, wantHours[i])
		}
		if peaks[i].LocationID == nil || *peaks[i].LocationID != wantLocations[i] {
			t.Errorf("peaks[%d].LocationID = %v, want %s", i, peaks[i].LocationID, wantLocations[i])
		}
	}
}

func TestOutlook(t *testing.T) {
	d1 := datatypes.Date(monday)
	d2 := model.AddDays(d1, 1)
	d3 := model.AddDays(d1, 2)

	days := []DayPredictions{
		{Date: d1, Predictions: []model.TrafficPrediction{
			prediction(d1, 8, 100, 0.4),
			prediction(d1, 9, 50, 0.6),
		}},
		{Date: d2},
		{Date: d3, Predictions: []model.TrafficPrediction{
			prediction(d3, 17, 100, 0.8),
			prediction(d3, 18, 20, 0.8),
		}},
	}

	insights := Outlook(days)
	if insights.Status != model.StatusOK {
		t.Fatalf("Status = %q, want ok", insights.Status)
	}
	if len(insights.Days) != 2 {
		t.Fatalf("Days = %d, want 2 (empty date skipped)", len(insights.Days))
	}

	first := insights.Days[0]
	if first.DayName != "Monday" || first.Peak.Hour != 8 || first.AverageVehicles != 75 || first.AverageConfidence != 0.5 || first.TotalPredictions != 2 {
		t.Errorf("first day = %+v", first)
	}

	// Ties across days keep the earliest date.
	if insights.OverallPeak == nil || insights.OverallPeak.Date != "2024-01-01" || insights.OverallPeak.Hour != 8 {
		t.Errorf("OverallPeak = %+v, want 2024-01-01 08:00", insights.OverallPeak)
	}
	if insights.TotalPredictions != 4 || insights.AverageConfidence != 0.65 {
		t.Errorf("total = %d, confidence = %v", insights.TotalPredictions, insights.AverageConfidence)
	}
}

func TestOutlookEmpty(t *testing.T) {
	insights := Outlook([]DayPredictions{{Date: datatypes.Date(monday)}})
	if insights.Status != model.StatusNoData || insights.OverallPeak != nil || len(insights.Days) != 0 {
		t.Errorf("insights = %+v, want no_data", insights)
	}
}
