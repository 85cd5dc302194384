package serverfx

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/codec"
	"github.com/joeydtaylor/steeze-effects/pkg/registry"
	"github.com/joeydtaylor/steeze-effects/pkg/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type Credit struct {
	Account string `json:"account"`
	Amount  int    `json:"amount"`
}

type tally struct{ n atomic.Int64 }

func (t *tally) OnCredit(c Credit) { t.n.Add(int64(c.Amount)) }

func (t *tally) Broken() {}

const manifestTOML = `
[dispatch]
buffer_size = 8

[[effect]]
host = "tally"
method = "OnCredit"

[[effect]]
host = "tally"
method = "Broken"

[[relay]]
datatype = "Credit"
topic = "bank.credits"
`

func setup(t *testing.T, body string) (*registry.Hosts, *actions.Registry, *tally) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "effects.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	t.Setenv("EFFECTS_MANIFEST", p)
	t.Setenv("LOG_DIR", filepath.Join(dir, "log"))
	t.Setenv("SERVER_LISTEN_ADDRESS", "127.0.0.1:0")
	t.Setenv("ELECTRICIAN_TARGET", "")

	acts := actions.NewRegistry()
	actions.MustRegisterType[Credit](acts, "Credit", codec.JSONStrict)
	relay.EnableRelayType[Credit]("Credit")

	hosts := registry.NewHosts()
	tl := &tally{}
	hosts.RegisterHost("tally", tl)
	return hosts, acts, tl
}

func TestModuleServesIngress(t *testing.T) {
	hosts, acts, tl := setup(t, manifestTOML)

	var app http.Handler
	fxApp := fxtest.New(t,
		Module(WithHosts(hosts), WithActions(acts)),
		fx.Invoke(fx.Annotate(func(h http.Handler) { app = h }, fx.ParamTags(`name:"app"`))),
	)
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	req := httptest.NewRequest(http.MethodPost, "/actions/Credit", strings.NewReader(`{"account":"a","amount":4}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool { return tl.n.Load() == 4 }, time.Second, 5*time.Millisecond)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/effects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"method":"OnCredit"`)
	assert.Contains(t, rec.Body.String(), `"method":"Forward"`)
	assert.NotContains(t, rec.Body.String(), `"method":"Broken"`)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "effects_actions_dispatched_total")
}

func TestModuleFailFastAbortsStart(t *testing.T) {
	hosts, acts, _ := setup(t, "[dispatch]\nfail_fast = true\n"+manifestTOML[strings.Index(manifestTOML, "[[effect]]"):])

	app := fx.New(
		Module(WithHosts(hosts), WithActions(acts)),
		fx.NopLogger,
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "Broken")
}

func TestModuleMissingManifest(t *testing.T) {
	hosts, acts, _ := setup(t, manifestTOML)
	t.Setenv("EFFECTS_MANIFEST", filepath.Join(t.TempDir(), "absent.toml"))

	app := fx.New(Module(WithHosts(hosts), WithActions(acts)), fx.NopLogger)
	assert.Error(t, app.Err())
}
