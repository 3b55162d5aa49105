package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は収集結果から指定名のメトリクスファミリーを探す。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labeledCounterValue はラベル値が一致するカウンタの値を返す。
func labeledCounterValue(t *testing.T, mf *dto.MetricFamily, label, value string) float64 {
	t.Helper()
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("%s{%s=%q} not found", mf.GetName(), label, value)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同一レジストリへの二重登録がパニックすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

// TestRecordHTTPStatus_LabelsByStatusCode はステータスコードごとにカウントされることを検証する。
func TestRecordHTTPStatus_LabelsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusConflict)

	mf := findMetricFamily(t, reg, "meetx_http_status_total")
	if got := labeledCounterValue(t, mf, "status_code", "200"); got != 2 {
		t.Errorf("status_code=200 = %v, want 2", got)
	}
	if got := labeledCounterValue(t, mf, "status_code", "409"); got != 1 {
		t.Errorf("status_code=409 = %v, want 1", got)
	}
}

// TestRecordAuthRejection_LabelsByReason は拒否理由ごとにカウントされることを検証する。
func TestRecordAuthRejection_LabelsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthRejection("expired")
	c.RecordAuthRejection("tampered")
	c.RecordAuthRejection("expired")

	mf := findMetricFamily(t, reg, "meetx_auth_rejections_total")
	if got := labeledCounterValue(t, mf, "reason", "expired"); got != 2 {
		t.Errorf("reason=expired = %v, want 2", got)
	}
	if got := labeledCounterValue(t, mf, "reason", "tampered"); got != 1 {
		t.Errorf("reason=tampered = %v, want 1", got)
	}
}

// TestBookingCounters は予約関連のカウンタが増加することを検証する。
func TestBookingCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordBookingCreated()
	c.RecordBookingConflict()
	c.RecordBookingConflict()
	c.RecordBookingStatusChange("cancelled")
	c.RecordLogin(LoginFailure)
	c.RecordEventPublishFailure("booking.created")

	if got := findMetricFamily(t, reg, "meetx_bookings_created_total").GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("bookings_created_total = %v, want 1", got)
	}
	if got := findMetricFamily(t, reg, "meetx_booking_conflicts_total").GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("booking_conflicts_total = %v, want 2", got)
	}
	if got := labeledCounterValue(t, findMetricFamily(t, reg, "meetx_booking_status_changes_total"), "status", "cancelled"); got != 1 {
		t.Errorf("status_changes{cancelled} = %v, want 1", got)
	}
	if got := labeledCounterValue(t, findMetricFamily(t, reg, "meetx_logins_total"), "result", LoginFailure); got != 1 {
		t.Errorf("logins{failure} = %v, want 1", got)
	}
	if got := labeledCounterValue(t, findMetricFamily(t, reg, "meetx_event_publish_failures_total"), "type", "booking.created"); got != 1 {
		t.Errorf("publish_failures{booking.created} = %v, want 1", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	h := findMetricFamily(t, reg, "meetx_http_request_duration_seconds").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
}

// TestHandler_ServesMetrics はハンドラーがテキスト形式でメトリクスを返すことを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordBookingCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "meetx_bookings_created_total 1") {
		t.Error("response should contain meetx_bookings_created_total 1")
	}
}
