// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"insight-workers/internal/catalog"
	"insight-workers/internal/common/aws"
	apperrors "insight-workers/internal/common/errors"
	apphttp "insight-workers/internal/common/http"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/execution"
	"insight-workers/internal/models"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"

	uploaddataset "insight-workers/internal/workers/dataset/upload-dataset"
	buildexecutionrequest "insight-workers/internal/workers/execution/build-execution-request"
	executeruleset "insight-workers/internal/workers/execution/execute-ruleset"
	recordexecution "insight-workers/internal/workers/execution/record-execution"
	listrulesets "insight-workers/internal/workers/ruleset/list-rulesets"
	publishruleset "insight-workers/internal/workers/ruleset/publish-ruleset"
	validateconfiguration "insight-workers/internal/workers/ruleset/validate-configuration"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// processVariables mimics how Zeebe merges each job's output into the
// process instance variables.
type processVariables map[string]interface{}

func (v processVariables) merge(t *testing.T, output interface{}) {
	t.Helper()
	raw, err := json.Marshal(output)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	for k, val := range fields {
		v[k] = val
	}
}

func (v processVariables) decode(t *testing.T, input interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, input))
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []models.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.EventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

var _ aws.Notifier = (*recordingNotifier)(nil)

type pipeline struct {
	store    storage.Store
	catalog  *catalog.Catalog
	notifier *recordingNotifier

	upload   *uploaddataset.Handler
	validate *validateconfiguration.Handler
	publish  *publishruleset.Handler
	list     *listrulesets.Handler
	build    *buildexecutionrequest.Handler
	execute  *executeruleset.Handler
	record   *recordexecution.Handler
}

// analysisService stands in for the external execution service. It answers
// every request with result and counts the calls it saw.
func analysisService(t *testing.T, result string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ExecutionRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.NotEmpty(t, req.ConfigRef)
		assert.True(t, req.Price.IsPositive())
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(result))
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func setupPipeline(t *testing.T, serviceURL string) *pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	reg := registry.Builtin()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := storage.NewRedisStore(rdb)

	sample, err := catalog.SampleFeed(context.Background(), reg, store, decimal.RequireFromString("0.80"))
	require.NoError(t, err)
	cat := catalog.New(catalog.NewMemoryStore(), sample, catalog.WithLogger(log))
	notifier := &recordingNotifier{}

	httpClient := apphttp.NewClient(5 * time.Second)
	t.Cleanup(http.DefaultTransport.(*http.Transport).CloseIdleConnections)

	return &pipeline{
		store:    store,
		catalog:  cat,
		notifier: notifier,
		upload:   uploaddataset.NewHandler(uploaddataset.LoadConfig(), store, log),
		validate: validateconfiguration.NewHandler(validateconfiguration.LoadConfig(), reg, store, log),
		publish:  publishruleset.NewHandler(publishruleset.LoadConfig(), reg, store, cat, notifier, log),
		list:     listrulesets.NewHandler(listrulesets.LoadConfig(), cat, log),
		build:    buildexecutionrequest.NewHandler(buildexecutionrequest.LoadConfig(), cat, store, log),
		execute:  executeruleset.NewHandler(executeruleset.LoadConfig(), execution.NewHTTPService(httpClient, serviceURL), log),
		record:   recordexecution.NewHandler(recordexecution.LoadConfig(), cat, notifier, log),
	}
}

// uploadCSV runs csv through the upload worker and returns its dataRef.
func uploadCSV(t *testing.T, p *pipeline, csv string) string {
	t.Helper()
	data, err := json.Marshal(csv)
	require.NoError(t, err)
	out, err := p.upload.Execute(context.Background(), &uploaddataset.Input{Data: data})
	require.NoError(t, err)
	exists, err := p.store.Exists(context.Background(), out.DataRef)
	require.NoError(t, err)
	require.True(t, exists)
	return out.DataRef
}

const cleanResult = `{
  "summary": "3 accounts share one IP",
  "findings": [{"type": "multi_account", "description": "3 accounts from 10.0.0.4", "confidence": 0.91}],
  "recommendations": ["review linked accounts"],
  "metadata": {"analyzed_records": 1200, "flagged_items": 3}
}`

// ==========================
// Full creator-to-buyer flow
// ==========================

func TestFullPipeline(t *testing.T) {
	ctx := context.Background()
	srv, calls := analysisService(t, cleanResult)
	p := setupPipeline(t, srv.URL)

	vars := processVariables{
		"templateId": "game_abuse_detection",
		"config": map[string]interface{}{
			"multi_account_threshold":    2,
			"refund_velocity_limit":      "4",
			"velocity_window_hours":      48,
			"min_playtime_before_refund": 1,
		},
		"name":              "Refund ring detector",
		"description":       "Finds refund rings across linked accounts",
		"pricePerExecution": "2.5",
		"creator":           "0xcreator",
	}

	t.Log("step 1: validate and store the configuration")
	var validateIn validateconfiguration.Input
	vars.decode(t, &validateIn)
	validated, err := p.validate.Execute(ctx, &validateIn)
	require.NoError(t, err)
	assert.Equal(t, "2.075", validated.Split.CreatorPayout.String())
	assert.Equal(t, "0.425", validated.Split.PlatformFee.String())
	exists, err := p.store.Exists(ctx, validated.ConfigRef)
	require.NoError(t, err)
	assert.True(t, exists)
	vars.merge(t, validated)

	t.Log("step 2: publish the ruleset")
	var publishIn publishruleset.Input
	vars.decode(t, &publishIn)
	published, err := p.publish.Execute(ctx, &publishIn)
	require.NoError(t, err)
	assert.Equal(t, "Gaming", published.Category)
	vars.merge(t, published)

	t.Log("step 3: the new ruleset is listed first in its category")
	listed, err := p.list.Execute(ctx, &listrulesets.Input{Category: "Gaming"})
	require.NoError(t, err)
	require.NotEmpty(t, listed.Rulesets)
	assert.Equal(t, published.RulesetID, listed.Rulesets[0].ID)
	for _, l := range listed.Rulesets {
		assert.Equal(t, registry.CategoryGaming, l.Category)
	}

	t.Log("step 4: a buyer uploads data and builds an execution request")
	vars["dataRef"] = uploadCSV(t, p, "player_id,ip\n1,10.0.0.4\n2,10.0.0.4\n3,10.0.0.4\n")
	vars["requester"] = "0xbuyer"
	var buildIn buildexecutionrequest.Input
	vars.decode(t, &buildIn)
	built, err := p.build.Execute(ctx, &buildIn)
	require.NoError(t, err)
	req := built.ExecutionRequest
	assert.Equal(t, published.RulesetID, req.RulesetID)
	assert.Equal(t, validated.ConfigRef, req.ConfigRef)
	assert.True(t, decimal.RequireFromString("2.5").Equal(req.Price))
	assert.True(t, req.Split.CreatorPayout.Add(req.Split.PlatformFee).Equal(req.Price))
	vars.merge(t, built)

	t.Log("step 5: run the analysis")
	var executeIn executeruleset.Input
	vars.decode(t, &executeIn)
	executed, err := p.execute.Execute(ctx, &executeIn)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	vars.merge(t, executed)

	t.Log("step 6: record the result, twice as a retried job would")
	var recordIn recordexecution.Input
	vars.decode(t, &recordIn)
	for i := 0; i < 2; i++ {
		recorded, err := p.record.Execute(ctx, &recordIn)
		require.NoError(t, err)
		assert.Equal(t, int64(1), recorded.TotalUses)
	}

	history, err := p.catalog.History(ctx, "0xbuyer")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, req.ExecutionID, history[0].ExecutionID)
	assert.Equal(t, int64(3), history[0].Result.Metadata.FlaggedItems)

	assert.Equal(t, []models.EventType{
		models.EventRulesetPublished,
		models.EventExecutionRecorded,
		models.EventExecutionRecorded,
	}, p.notifier.types())
}

func TestSampleListingCanBeExecuted(t *testing.T) {
	ctx := context.Background()
	srv, _ := analysisService(t, cleanResult)
	p := setupPipeline(t, srv.URL)

	listed, err := p.list.Execute(ctx, &listrulesets.Input{Category: "DeFi"})
	require.NoError(t, err)
	require.NotEmpty(t, listed.Rulesets)
	remote := listed.Rulesets[0]
	assert.Equal(t, "0.8", remote.Split.Share.String())

	built, err := p.build.Execute(ctx, &buildexecutionrequest.Input{
		RulesetID:    remote.ID,
		DataRef:      uploadCSV(t, p, "wallet,collateral\n0xa,140\n"),
		Requester:    "0xbuyer",
		OfferedPrice: remote.PricePerExecution,
	})
	require.NoError(t, err)

	executed, err := p.execute.Execute(ctx, &executeruleset.Input{ExecutionRequest: built.ExecutionRequest})
	require.NoError(t, err)

	raw, err := json.Marshal(executed.Result)
	require.NoError(t, err)
	recorded, err := p.record.Execute(ctx, &recordexecution.Input{
		ExecutionID: executed.ExecutionID,
		RulesetID:   executed.RulesetID,
		Requester:   executed.Requester,
		Result:      raw,
	})
	require.NoError(t, err)
	assert.Equal(t, remote.TotalUses+1, recorded.TotalUses)
}

func TestRejectedResultIsNeverRecorded(t *testing.T) {
	ctx := context.Background()
	srv, _ := analysisService(t, `{"summary":"bad","findings":[],"recommendations":[],"metadata":{"analyzed_records":10,"flagged_items":12}}`)
	p := setupPipeline(t, srv.URL)

	listed, err := p.list.Execute(ctx, &listrulesets.Input{Category: "Social"})
	require.NoError(t, err)
	require.NotEmpty(t, listed.Rulesets)
	target := listed.Rulesets[0]

	built, err := p.build.Execute(ctx, &buildexecutionrequest.Input{
		RulesetID: target.ID,
		DataRef:   uploadCSV(t, p, "post,score\n1,0.2\n"),
		Requester: "0xbuyer",
	})
	require.NoError(t, err)

	_, err = p.execute.Execute(ctx, &executeruleset.Input{ExecutionRequest: built.ExecutionRequest})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResultSchemaInvalid))

	history, err := p.catalog.History(ctx, "0xbuyer")
	require.NoError(t, err)
	assert.Empty(t, history)

	got, err := p.catalog.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.TotalUses, got.TotalUses)
	assert.Empty(t, p.notifier.types())
}

func TestStalePriceIsRejected(t *testing.T) {
	ctx := context.Background()
	srv, calls := analysisService(t, cleanResult)
	p := setupPipeline(t, srv.URL)

	listed, err := p.list.Execute(ctx, &listrulesets.Input{Category: "Gaming"})
	require.NoError(t, err)
	require.NotEmpty(t, listed.Rulesets)

	_, err = p.build.Execute(ctx, &buildexecutionrequest.Input{
		RulesetID:    listed.Rulesets[0].ID,
		DataRef:      uploadCSV(t, p, "player_id,refunds\n1,9\n"),
		Requester:    "0xbuyer",
		OfferedPrice: listed.Rulesets[0].PricePerExecution.Add(decimal.NewFromInt(1)),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePriceMismatch))
	assert.Equal(t, int32(0), calls.Load())
}
